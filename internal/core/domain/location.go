package domain

import (
	"path"
	"path/filepath"
	"strings"
)

// ArchiveSeparator joins an archive path and the entry name inside it in
// the persisted form of an archive member location.
const ArchiveSeparator = " :: "

// LocationKind distinguishes plain files from archive members.
type LocationKind int

// Location kinds.
const (
	// LocationDirect is a file on disk.
	LocationDirect LocationKind = iota

	// LocationArchiveMember is an entry inside an archive file on disk.
	LocationArchiveMember
)

// Location addresses an indexed unit of text.
type Location struct {
	// Kind reports whether Path is the file itself or the archive containing it.
	Kind LocationKind

	// Path is the absolute filesystem path of the file or archive.
	Path string

	// Entry is the member name inside the archive. Empty for direct files.
	Entry string
}

// DirectLocation returns the location of a plain file.
func DirectLocation(p string) Location {
	return Location{Kind: LocationDirect, Path: p}
}

// ArchiveLocation returns the location of a member inside an archive.
func ArchiveLocation(archive, entry string) Location {
	return Location{Kind: LocationArchiveMember, Path: archive, Entry: entry}
}

// ParseLocation parses the persisted form produced by String.
func ParseLocation(s string) (Location, error) {
	if strings.TrimSpace(s) == "" {
		return Location{}, ErrInvalidLocation
	}
	archive, entry, found := strings.Cut(s, ArchiveSeparator)
	if !found {
		return DirectLocation(s), nil
	}
	if archive == "" || entry == "" {
		return Location{}, ErrInvalidLocation
	}
	return ArchiveLocation(archive, entry), nil
}

// String returns the display and persisted form: the path for direct files,
// "<archive> :: <entry>" for archive members.
func (l Location) String() string {
	if l.Kind == LocationArchiveMember {
		return l.Path + ArchiveSeparator + l.Entry
	}
	return l.Path
}

// RealPath returns the file on disk that the OS should open for this location.
func (l Location) RealPath() string {
	return l.Path
}

// Filename returns the base name shown to users.
func (l Location) Filename() string {
	if l.Kind == LocationArchiveMember {
		return path.Base(filepath.ToSlash(l.Entry))
	}
	return filepath.Base(l.Path)
}

// IsArchiveMember reports whether the location points inside an archive.
func (l Location) IsArchiveMember() bool {
	return l.Kind == LocationArchiveMember
}

// IsUnder reports whether the location's real file is root itself or lies
// beneath it. The check respects path boundaries, so "/data/a" is not under
// "/data/ab".
func (l Location) IsUnder(root string) bool {
	return PathIsUnder(l.Path, root)
}

// PathIsUnder reports whether p equals root or is nested beneath it.
func PathIsUnder(p, root string) bool {
	root = TrimTrailingSeparator(root)
	if p == root {
		return true
	}
	if root == "" {
		return false
	}
	if strings.HasSuffix(root, string(filepath.Separator)) {
		return strings.HasPrefix(p, root)
	}
	return strings.HasPrefix(p, root+string(filepath.Separator))
}

// TrimTrailingSeparator removes trailing separators but keeps a bare root
// such as "/" intact.
func TrimTrailingSeparator(p string) string {
	for len(p) > 1 && strings.HasSuffix(p, string(filepath.Separator)) {
		trimmed := strings.TrimSuffix(p, string(filepath.Separator))
		if filepath.VolumeName(p)+string(filepath.Separator) == p {
			break
		}
		p = trimmed
	}
	return p
}
