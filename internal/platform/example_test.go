package platform_test

import (
	"fmt"

	"github.com/zymbit-applications/zb-install/internal/platform"
)

func ExampleTagFromModel() {
	tag, ok := platform.TagFromModel("Raspberry Pi Compute Module 4 Rev 1.1\x00")
	if ok {
		fmt.Println(tag, "-", tag.DisplayName())
	}
	// Output: rpi4 - Raspberry Pi 4/Compute Module 4
}

func ExampleParseTag() {
	tag, err := platform.ParseTag("Zero2W")
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(tag)
	// Output: rpi0
}

func ExampleInfo_String() {
	info := &platform.Info{
		Tag:    platform.TagRpi4,
		OS:     platform.OSUbuntu,
		Module: platform.ModuleZymkey,
	}
	fmt.Print(info)
	// Output:
	// Pi Module:         Raspberry Pi 4/Compute Module 4
	// Operating System:  Ubuntu
	// Zymbit module:     Zymkey
	// Kernel:            vmlinuz
}
