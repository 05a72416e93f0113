package usecase

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// buildArchive packages the contents of dir into a zip archive at outPath.
// Entry paths are relative to dir so the archive root holds the directory
// contents directly. Symlinks are skipped, exclude patterns are matched
// against the archive-relative path and the base name.
func buildArchive(dir, outPath string, exclude []string) (*model.Artifact, error) {
	out, err := os.Create(outPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create archive file", goerr.V("path", outPath))
	}
	defer out.Close()

	digest := sha256.New()
	zw := zip.NewWriter(io.MultiWriter(out, digest))

	artifact := &model.Artifact{Path: outPath}

	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == dir {
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return goerr.Wrap(err, "failed to compute relative path", goerr.V("path", p))
		}
		rel = filepath.ToSlash(rel)

		if excluded(rel, exclude) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return goerr.Wrap(err, "failed to stat entry", goerr.V("path", p))
		}

		// Symlinks do not survive Lambda packaging
		if info.Mode()&os.ModeSymlink != 0 {
			return nil
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return goerr.Wrap(err, "failed to build zip header", goerr.V("path", p))
		}
		header.Method = zip.Deflate

		if d.IsDir() {
			header.Name = rel + "/"
			if _, err := zw.CreateHeader(header); err != nil {
				return goerr.Wrap(err, "failed to add directory entry", goerr.V("path", rel))
			}
			return nil
		}

		header.Name = rel
		w, err := zw.CreateHeader(header)
		if err != nil {
			return goerr.Wrap(err, "failed to add file entry", goerr.V("path", rel))
		}

		f, err := os.Open(p)
		if err != nil {
			return goerr.Wrap(err, "failed to open source file", goerr.V("path", p))
		}
		defer f.Close()

		n, err := io.Copy(w, f)
		if err != nil {
			return goerr.Wrap(err, "failed to write file to archive", goerr.V("path", rel))
		}

		artifact.Files = append(artifact.Files, rel)
		artifact.Size += n
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, goerr.Wrap(err, "failed to finalize archive", goerr.V("path", outPath))
	}
	if err := out.Close(); err != nil {
		return nil, goerr.Wrap(err, "failed to close archive file", goerr.V("path", outPath))
	}

	artifact.SHA256 = base64.StdEncoding.EncodeToString(digest.Sum(nil))
	return artifact, nil
}

func excluded(rel string, patterns []string) bool {
	base := path.Base(rel)
	for _, pattern := range patterns {
		if ok, _ := path.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := path.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
