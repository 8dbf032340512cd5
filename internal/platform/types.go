// Package platform detects the Raspberry Pi variant, operating system and
// Zymbit add-on module of the host zb-install runs on.
//
// Detection reads a few fixed locations: the devicetree model string for the
// board, /etc/os-release (through gopsutil) for the distribution, and a
// device-node glob for the Secure Compute Module. The board is the only part
// that is required; the rest is informational. The detected Info can also be
// injected into Lua asset tables as a read-only table.
package platform

import (
	"context"
	"fmt"
	"strings"
)

// Tag identifies a supported hardware variant.
type Tag string

const (
	TagRpi0 Tag = "rpi0" // Pi Zero 2 W
	TagRpi4 Tag = "rpi4" // Pi 4 or CM4
	TagRpi5 Tag = "rpi5" // Pi 5 or CM5
)

// AllTags lists the supported tags in display order.
func AllTags() []Tag {
	return []Tag{TagRpi0, TagRpi4, TagRpi5}
}

// String returns the short tag name.
func (t Tag) String() string {
	return string(t)
}

// DisplayName returns the human readable board name.
func (t Tag) DisplayName() string {
	switch t {
	case TagRpi0:
		return "Raspberry Pi Zero 2 W"
	case TagRpi4:
		return "Raspberry Pi 4/Compute Module 4"
	case TagRpi5:
		return "Raspberry Pi 5/Compute Module 5"
	default:
		return "Unknown"
	}
}

// OperatingSystem is the distribution flavour, used for display only.
type OperatingSystem string

const (
	OSUbuntu   OperatingSystem = "Ubuntu"
	OSBullseye OperatingSystem = "Rpi-Bullseye"
	OSBookworm OperatingSystem = "Rpi-Bookworm"
	OSUnknown  OperatingSystem = "Unknown"
)

// Module is the Zymbit security module attached to the board.
type Module string

const (
	ModuleZymkey Module = "Zymkey"
	ModuleSCM    Module = "Secure Compute Module"
)

// Kernel is the kernel image name the board boots.
type Kernel string

const (
	KernelVmlinuz    Kernel = "vmlinuz"
	KernelKernel8    Kernel = "kernel8.img"
	KernelKernel2712 Kernel = "kernel_2712.img"
)

// Info contains platform detection results.
type Info struct {
	Tag           Tag
	Model         string // raw devicetree model, empty when the tag was overridden
	Overridden    bool   // tag came from --rpi-model
	OS            OperatingSystem
	Distro        string // distro ID from os-release, e.g. "debian"
	DistroVersion string // e.g. "12.5"
	Arch          string // GOARCH of this build
	Module        Module
}

// Kernel derives the boot kernel image from the OS and board.
func (i *Info) Kernel() Kernel {
	if i.OS == OSUbuntu {
		return KernelVmlinuz
	}
	if i.Tag == TagRpi5 {
		return KernelKernel2712
	}
	return KernelKernel8
}

// HasSCM reports whether a Secure Compute Module was found.
func (i *Info) HasSCM() bool {
	return i.Module == ModuleSCM
}

// Rows returns the label/value pairs shown in the system summary.
func (i *Info) Rows() [][2]string {
	board := i.Tag.DisplayName()
	if i.Overridden {
		board += " (override)"
	}
	return [][2]string{
		{"Pi Module", board},
		{"Operating System", string(i.OS)},
		{"Zymbit module", string(i.Module)},
		{"Kernel", string(i.Kernel())},
	}
}

// String renders the summary as plain aligned text.
func (i *Info) String() string {
	var b strings.Builder
	for _, row := range i.Rows() {
		fmt.Fprintf(&b, "%-18s %s\n", row[0]+":", row[1])
	}
	return b.String()
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
