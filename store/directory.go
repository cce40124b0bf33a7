// Copyright 2025 Skein Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// FileEntry is one file of a Directory, referencing its content by digest.
type FileEntry struct {
	Name         string
	Digest       Digest
	IsExecutable bool
}

// DirEntry is one subdirectory of a Directory, referencing its serialized
// form by digest.
type DirEntry struct {
	Name   string
	Digest Digest
}

// Directory is a single level of a stored tree. Serialization is
// canonical: entries are name-sorted and the encoding is deterministic,
// so structurally equal trees share a digest.
type Directory struct {
	Dirs  []DirEntry
	Files []FileEntry
}

func (d *Directory) normalize() {
	sort.Slice(d.Dirs, func(i, j int) bool { return d.Dirs[i].Name < d.Dirs[j].Name })
	sort.Slice(d.Files, func(i, j int) bool { return d.Files[i].Name < d.Files[j].Name })
}

// encode renders the canonical serialized form.
func (d *Directory) encode() []byte {
	d.normalize()
	var b bytes.Buffer
	for _, e := range d.Dirs {
		fmt.Fprintf(&b, "dir %s %s %d\n", strconv.Quote(e.Name), e.Digest.Fingerprint, e.Digest.SizeBytes)
	}
	for _, e := range d.Files {
		mode := "-"
		if e.IsExecutable {
			mode = "x"
		}
		fmt.Fprintf(&b, "file %s %s %d %s\n", strconv.Quote(e.Name), e.Digest.Fingerprint, e.Digest.SizeBytes, mode)
	}
	return b.Bytes()
}

func decodeDirectory(raw []byte) (*Directory, error) {
	d := &Directory{}
	for ln, line := range strings.Split(string(raw), "\n") {
		if line == "" {
			continue
		}
		fields, err := splitEntry(line)
		if err != nil {
			return nil, errors.Wrapf(err, "directory entry %d", ln)
		}
		switch fields[0] {
		case "dir":
			if len(fields) != 4 {
				return nil, errors.Errorf("directory entry %d: malformed dir line", ln)
			}
			size, err := strconv.ParseInt(fields[3], 10, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "directory entry %d", ln)
			}
			d.Dirs = append(d.Dirs, DirEntry{
				Name:   fields[1],
				Digest: Digest{Fingerprint: fields[2], SizeBytes: size},
			})
		case "file":
			if len(fields) != 5 {
				return nil, errors.Errorf("directory entry %d: malformed file line", ln)
			}
			size, err := strconv.ParseInt(fields[3], 10, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "directory entry %d", ln)
			}
			d.Files = append(d.Files, FileEntry{
				Name:         fields[1],
				Digest:       Digest{Fingerprint: fields[2], SizeBytes: size},
				IsExecutable: fields[4] == "x",
			})
		default:
			return nil, errors.Errorf("directory entry %d: unknown kind %q", ln, fields[0])
		}
	}
	return d, nil
}

// splitEntry splits "kind <quoted-name> rest..." handling quoting in the
// name field only.
func splitEntry(line string) ([]string, error) {
	kind, rest, ok := strings.Cut(line, " ")
	if !ok {
		return nil, errors.New("malformed entry")
	}
	if !strings.HasPrefix(rest, `"`) {
		return nil, errors.New("entry name is not quoted")
	}
	name, err := strconv.QuotedPrefix(rest)
	if err != nil {
		return nil, errors.Wrap(err, "entry name")
	}
	unquoted, err := strconv.Unquote(name)
	if err != nil {
		return nil, errors.Wrap(err, "entry name")
	}
	out := []string{kind, unquoted}
	out = append(out, strings.Fields(rest[len(name):])...)
	return out, nil
}
