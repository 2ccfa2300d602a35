package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// metaDir holds one JSON sidecar per object, mirroring the object tree.
const metaDir = ".meta"

var _ Bucket = (*DirBucket)(nil)

type dirMeta struct {
	HTTPMetadata
	ETag string `json:"etag"`
}

// DirBucket is a Bucket binding over a directory the host mounts into the
// process. Object bytes live at root/<key>; metadata at root/.meta/<key>.json.
type DirBucket struct {
	root string
}

// NewDirBucket creates root if needed and returns a binding over it.
func NewDirBucket(root string) (*DirBucket, error) {
	if err := os.MkdirAll(filepath.Join(root, metaDir), 0o755); err != nil {
		return nil, fmt.Errorf("create bucket dir: %w", err)
	}
	return &DirBucket{root: root}, nil
}

func (d *DirBucket) paths(key string) (string, string, error) {
	rel := filepath.FromSlash(key)
	if !filepath.IsLocal(rel) || strings.SplitN(rel, string(filepath.Separator), 2)[0] == metaDir {
		return "", "", ErrInvalidKey
	}
	return filepath.Join(d.root, rel), filepath.Join(d.root, metaDir, rel+".json"), nil
}

func (d *DirBucket) Get(_ context.Context, key string) (*Object, error) {
	dataPath, metaPath, err := d.paths(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(dataPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open object: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat object: %w", err)
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, ErrNotFound
	}

	var meta dirMeta
	if raw, err := os.ReadFile(metaPath); err == nil {
		if err := json.Unmarshal(raw, &meta); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}

	return &Object{
		Body:        f,
		ContentType: meta.ContentType,
		Size:        st.Size(),
		ETag:        meta.ETag,
	}, nil
}

// Put writes the object and its metadata to temp files and renames both into
// place, data first, so readers never see a partial object.
func (d *DirBucket) Put(_ context.Context, key string, body io.Reader, _ int64, meta HTTPMetadata) error {
	dataPath, metaPath, err := d.paths(key)
	if err != nil {
		return err
	}
	for _, p := range []string{dataPath, metaPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("create object dir: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(dataPath), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	h := md5.New()
	if _, err := io.Copy(io.MultiWriter(tmp, h), body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	raw, err := json.Marshal(dirMeta{HTTPMetadata: meta, ETag: hex.EncodeToString(h.Sum(nil))})
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	metaTmp, err := writeTemp(filepath.Dir(metaPath), raw)
	if err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	defer os.Remove(metaTmp) //nolint:errcheck

	// Data first: a failed rename must not leave the new metadata behind.
	if err := os.Rename(tmp.Name(), dataPath); err != nil {
		return fmt.Errorf("rename object: %w", err)
	}
	if err := os.Rename(metaTmp, metaPath); err != nil {
		return fmt.Errorf("rename metadata: %w", err)
	}
	return nil
}

func writeTemp(dir string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, ".meta-*")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func (d *DirBucket) Delete(_ context.Context, key string) error {
	dataPath, metaPath, err := d.paths(key)
	if err != nil {
		return err
	}
	for _, p := range []string{dataPath, metaPath} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove object: %w", err)
		}
	}
	return nil
}
