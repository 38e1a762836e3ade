package gsidem

import (
	"archive/zip"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Document is one XML document to convert.
type Document struct {
	// Path identifies the document in logs and reports; zip members are "archive.zip!member.xml".
	Path string
	// Stem is the base name without extension, used when the document has no mesh code.
	Stem string
	read func() ([]byte, error)
}

// Read returns the full document in a buffer owned by the caller.
func (d Document) Read() ([]byte, error) {
	return d.read()
}

// Inputs holds discovered documents and the archives they are read from.
type Inputs struct {
	Documents []Document
	// Name is the stem of the input path, used for merged output.
	Name    string
	closers []io.Closer
}

// Close releases open archives.
func (in *Inputs) Close() error {
	var first error
	for _, c := range in.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	in.closers = nil
	return first
}

// Discover lists the XML documents of an .xml file, a .zip archive or a directory tree.
// Directory entries are visited in lexical order.
func Discover(path string) (*Inputs, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(ErrInputNotFound, path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", path)
	}

	in := &Inputs{Name: stem(path)}
	if info.IsDir() {
		err = in.addDir(path)
	} else {
		err = in.addFile(path)
	}
	if err != nil {
		in.Close()
		return nil, err
	}
	if len(in.Documents) == 0 {
		in.Close()
		return nil, errors.Wrap(ErrNoDocuments, path)
	}
	return in, nil
}

func (in *Inputs) addFile(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		in.Documents = append(in.Documents, Document{
			Path: path,
			Stem: stem(path),
			read: func() ([]byte, error) { return os.ReadFile(path) },
		})
		return nil
	case ".zip":
		return in.addZip(path)
	}
	return errors.Wrap(ErrUnsupportedInput, path)
}

func (in *Inputs) addDir(root string) error {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".xml", ".zip":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "walking %s", root)
	}
	sort.Strings(files)
	for _, f := range files {
		if err := in.addFile(f); err != nil {
			return err
		}
	}
	return nil
}

func (in *Inputs) addZip(path string) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return errors.Wrapf(err, "opening archive %s", path)
	}
	in.closers = append(in.closers, r)

	var members []*zip.File
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !strings.EqualFold(filepath.Ext(f.Name), ".xml") {
			continue
		}
		members = append(members, f)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })

	for _, f := range members {
		in.Documents = append(in.Documents, Document{
			Path: path + "!" + f.Name,
			Stem: stem(f.Name),
			read: func() ([]byte, error) { return readZipEntry(f) },
		})
	}
	return nil
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func stem(path string) string {
	base := filepath.Base(strings.TrimRight(path, `/\`))
	return strings.TrimSuffix(base, filepath.Ext(base))
}
