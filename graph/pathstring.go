package graph

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"
)

// PathString returns a compact string representation for the given path:
//
//	alb.dns_name
//	fleet.instances[0].id
//	queue.tags["team"]
func PathString(path cty.Path) string {
	var buf bytes.Buffer
	for i, p := range path {
		switch v := p.(type) {
		case cty.GetAttrStep:
			if i > 0 {
				buf.WriteByte('.')
			}
			buf.WriteString(v.Name)
		case cty.IndexStep:
			if v.Key.Type() == cty.Number {
				bf := v.Key.AsBigFloat()
				val, _ := bf.Int64()
				fmt.Fprintf(&buf, "[%d]", val)
				continue
			}
			fmt.Fprintf(&buf, "[%q]", v.Key.AsString())
		default:
			panic(fmt.Sprintf("Unknown path type %T", v))
		}
	}
	return buf.String()
}

// ParsePathString parses a string produced by PathString back into a path.
func ParsePathString(str string) (cty.Path, error) {
	var path cty.Path
	rest := str
	for len(rest) > 0 {
		switch rest[0] {
		case '.':
			rest = rest[1:]
		case '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, errors.Errorf("unterminated index in %q", str)
			}
			key := rest[1:end]
			rest = rest[end+1:]
			if len(key) >= 2 && key[0] == '"' {
				unq, err := strconv.Unquote(key)
				if err != nil {
					return nil, errors.Wrapf(err, "unquote index key in %q", str)
				}
				path = path.Index(cty.StringVal(unq))
				continue
			}
			n, err := strconv.ParseInt(key, 10, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "parse index in %q", str)
			}
			path = path.Index(cty.NumberIntVal(n))
		default:
			end := strings.IndexAny(rest, ".[")
			if end < 0 {
				end = len(rest)
			}
			name := rest[:end]
			if name == "" {
				return nil, errors.Errorf("empty attribute name in %q", str)
			}
			path = path.GetAttr(name)
			rest = rest[end:]
		}
	}
	if len(path) == 0 {
		return nil, errors.New("empty path")
	}
	return path, nil
}
