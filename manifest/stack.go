package manifest

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
)

// A Stack is a named deployment rooted at a directory on disk, identified by
// the file .stackform/stack.
type Stack struct {
	// RootDir is the absolute path to the root directory of the stack.
	RootDir string `json:"-"`

	// Name is the name of the stack. Persisted snapshots are keyed by it.
	Name string `json:"name" validate:"required,ident"`
}

// FindStack finds a stack on disk. If no stack is found, nil is returned.
//
// The stack's root directory is determined by the file .stackform/stack
// existing. If the given dir does not contain a stack, parent directories are
// traversed until one is found.
func FindStack(dir string) (*Stack, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, err
	}

	file := filepath.Join(dir, ".stackform", "stack")
	f, err := os.Open(file)
	if err != nil {
		if os.IsNotExist(err) {
			parent := filepath.Dir(dir)
			if parent == dir || parent[len(parent)-1] == filepath.Separator {
				// Not found
				return nil, nil
			}
			return FindStack(parent)
		}
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	abs, _ := filepath.Abs(dir)

	d := json.NewDecoder(f)
	d.DisallowUnknownFields()

	s := &Stack{RootDir: abs}
	if err := d.Decode(s); err != nil {
		return nil, fmt.Errorf("parse stack: %v", err)
	}
	if err := checkIdent("stack name", s.Name); err != nil {
		return nil, err
	}

	return s, nil
}

// Write persists the stack to disk.
func (s *Stack) Write() error {
	if err := checkIdent("stack name", s.Name); err != nil {
		return err
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(s.RootDir, ".stackform"), 0744); err != nil {
		return err
	}
	file := filepath.Join(s.RootDir, ".stackform", "stack")
	return ioutil.WriteFile(file, b, 0644)
}
