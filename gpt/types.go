// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gpt

import "github.com/google/uuid"

// Well-known partition type GUIDs.
var (
	TypeEFISystemPartition = uuid.MustParse("C12A7328-F81F-11D2-BA4B-00A0C93EC93B")
	TypeBIOSBoot           = uuid.MustParse("21686148-6449-6E6F-744E-656564454649")
	TypeLinuxFilesystem    = uuid.MustParse("0FC63DAF-8483-4772-8E79-3D69D8477DE4")
	TypeLinuxSwap          = uuid.MustParse("0657FD6D-A4AB-43C4-84E5-0933C84B4F4F")
	TypeMicrosoftBasicData = uuid.MustParse("EBD0A0A2-B9E5-4433-87C0-68B6B72699C7")
	TypeMicrosoftReserved  = uuid.MustParse("E3C9E316-0B5C-4DB8-817D-F92DF00215AE")
)

var typeNames = map[uuid.UUID]string{
	TypeEFISystemPartition: "EFI System",
	TypeBIOSBoot:           "BIOS boot",
	TypeLinuxFilesystem:    "Linux filesystem",
	TypeLinuxSwap:          "Linux swap",
	TypeMicrosoftBasicData: "Microsoft basic data",
	TypeMicrosoftReserved:  "Microsoft reserved",
}

// TypeName returns a human-readable name for a partition type GUID, or the
// GUID string itself if the type is not well-known.
func TypeName(t uuid.UUID) string {
	if name, ok := typeNames[t]; ok {
		return name
	}

	return t.String()
}
