package upload

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// File is one attachment chosen from disk.
type File struct {
	Name string
	Path string
	Size int64
}

// StatFile describes the file at path.
func StatFile(path string) (File, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	if fi.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	return File{Name: filepath.Base(path), Path: path, Size: fi.Size()}, nil
}

// Picker mimics a file input: it keeps the last chosen list and reports a
// change only when a new pick differs from it.
type Picker struct {
	retained []string
}

// Pick records paths and reports whether they differ from the retained
// selection.
func (p *Picker) Pick(paths []string) bool {
	if slices.Equal(p.retained, paths) {
		return false
	}
	p.retained = slices.Clone(paths)
	return true
}

// Reset forgets the retained selection so that picking the same files
// again registers as a change.
func (p *Picker) Reset() {
	p.retained = nil
}

// Selection is the pending attachment list of the record form.
type Selection struct {
	photos      []File
	video       *File
	photoPicker Picker
	videoPicker Picker
}

// PickPhotos replaces the pending photos with paths, in order. It returns
// false when the picker saw no change.
func (s *Selection) PickPhotos(paths ...string) (bool, error) {
	files := make([]File, 0, len(paths))
	for _, p := range paths {
		f, err := StatFile(p)
		if err != nil {
			return false, err
		}
		if err := checkKind(f, kindImage); err != nil {
			return false, err
		}
		files = append(files, f)
	}
	if !s.photoPicker.Pick(paths) {
		return false, nil
	}
	s.photos = files
	return true, nil
}

// PickVideo sets the single pending video.
func (s *Selection) PickVideo(path string) (bool, error) {
	f, err := StatFile(path)
	if err != nil {
		return false, err
	}
	if err := checkKind(f, kindVideo); err != nil {
		return false, err
	}
	if !s.videoPicker.Pick([]string{path}) {
		return false, nil
	}
	s.video = &f
	return true, nil
}

// RemovePhoto drops the i-th pending photo and resets the picker.
func (s *Selection) RemovePhoto(i int) error {
	if i < 0 || i >= len(s.photos) {
		return fmt.Errorf("no photo #%d", i+1)
	}
	s.photos = slices.Delete(s.photos, i, i+1)
	s.photoPicker.Reset()
	return nil
}

// RemoveVideo drops the pending video and resets the picker.
func (s *Selection) RemoveVideo() {
	s.video = nil
	s.videoPicker.Reset()
}

func (s *Selection) Photos() []File {
	return slices.Clone(s.photos)
}

func (s *Selection) Video() *File {
	if s.video == nil {
		return nil
	}
	v := *s.video
	return &v
}

// Clear empties the selection after a successful submission.
func (s *Selection) Clear() {
	s.photos = nil
	s.RemoveVideo()
	s.photoPicker.Reset()
}
