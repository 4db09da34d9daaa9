package models

// Package represents an RPM package header as seen by imgdiff and the
// packaging checks
type Package struct {
	// Core metadata
	Name         string
	Version      string
	Release      string
	Epoch        string
	Architecture string
	Summary      string
	License      string
	URL          string
	Requires     []string

	// Installed file paths recorded in the header
	Files []string

	// File information
	Filename  string
	Size      int64
	SHA256Sum string
}

// NEVRA returns name-[epoch:]version-release.arch
func (p *Package) NEVRA() string {
	evr := p.Version + "-" + p.Release
	if p.Epoch != "" && p.Epoch != "0" {
		evr = p.Epoch + ":" + evr
	}
	if p.Architecture == "" {
		return p.Name + "-" + evr
	}
	return p.Name + "-" + evr + "." + p.Architecture
}
