// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package disk

import "github.com/google/uuid"

// PartitionType is the advisory classification of a partition.
type PartitionType uint8

const (
	TypeOther PartitionType = iota
	TypeEFISystem
	TypeBasicData
	TypeLinuxFilesystem
	TypeLinuxSwap
	TypeLinuxLVM
	TypeAndroidBootloader
	TypeAndroidBoot
	TypeAndroidRecovery
	TypeAndroidSystem
	TypeAndroidUserdata
	TypeAndroidMetadata
	TypeAndroidCache
	TypeLegacyMBR
)

func (t PartitionType) String() string {
	switch t {
	case TypeEFISystem:
		return "EFI System"
	case TypeBasicData:
		return "Basic data"
	case TypeLinuxFilesystem:
		return "Linux filesystem"
	case TypeLinuxSwap:
		return "Linux swap"
	case TypeLinuxLVM:
		return "Linux LVM"
	case TypeAndroidBootloader:
		return "Android bootloader"
	case TypeAndroidBoot:
		return "Android boot"
	case TypeAndroidRecovery:
		return "Android recovery"
	case TypeAndroidSystem:
		return "Android system"
	case TypeAndroidUserdata:
		return "Android userdata"
	case TypeAndroidMetadata:
		return "Android metadata"
	case TypeAndroidCache:
		return "Android cache"
	case TypeLegacyMBR:
		return "Legacy MBR"
	default:
		return "Other"
	}
}

var (
	GUIDEFISystem         = uuid.MustParse("C12A7328-F81F-11D2-BA4B-00A0C93EC93B")
	GUIDBasicData         = uuid.MustParse("EBD0A0A2-B9E5-4433-87C0-68B6B72699C7")
	GUIDLinuxFilesystem   = uuid.MustParse("0FC63DAF-8483-4772-8E79-3D69D8477DE4")
	GUIDLinuxSwap         = uuid.MustParse("0657FD6D-A4AB-43C4-84E5-0933C84B4F4F")
	GUIDLinuxLVM          = uuid.MustParse("E6D6D379-F507-44C2-A23C-238F2A3DF928")
	GUIDAndroidBootloader = uuid.MustParse("2568845D-2332-4675-BC39-8FA5A4748D15")
	GUIDAndroidBoot       = uuid.MustParse("49A4D17F-93A3-45C1-A0DE-F50BA6142EF8")
	GUIDAndroidRecovery   = uuid.MustParse("4177C722-9E92-4AAB-8699-F512EEC09FBD")
	GUIDAndroidSystem     = uuid.MustParse("83BD6B9D-7F4A-11E0-ACC0-07008602EE7D")
	GUIDAndroidUserdata   = uuid.MustParse("8F68CC74-C5E5-48DA-BE91-A0C81576213F")
	GUIDAndroidMetadata   = uuid.MustParse("20AC26BE-20B7-11E3-84C5-6CFB7FCF0B23")
	GUIDLegacyMBR         = uuid.MustParse("024DEE41-33E7-11D3-9D69-0008C781F39F")
)

var gptTypes = map[uuid.UUID]PartitionType{
	GUIDEFISystem:         TypeEFISystem,
	GUIDBasicData:         TypeBasicData,
	GUIDLinuxFilesystem:   TypeLinuxFilesystem,
	GUIDLinuxSwap:         TypeLinuxSwap,
	GUIDLinuxLVM:          TypeLinuxLVM,
	GUIDAndroidBootloader: TypeAndroidBootloader,
	GUIDAndroidBoot:       TypeAndroidBoot,
	GUIDAndroidRecovery:   TypeAndroidRecovery,
	GUIDAndroidSystem:     TypeAndroidSystem,
	GUIDAndroidUserdata:   TypeAndroidUserdata,
	GUIDAndroidMetadata:   TypeAndroidMetadata,
	GUIDLegacyMBR:         TypeLegacyMBR,
}

// ClassifyGPT maps a partition type GUID to its known type.
func ClassifyGPT(typeGUID uuid.UUID) PartitionType {
	if t, ok := gptTypes[typeGUID]; ok {
		return t
	}
	return TypeOther
}

// ClassifyMBR maps a legacy partition indicator to its known type.
func ClassifyMBR(id MBRPartition) PartitionType {
	switch id {
	case PartitionTypeEFISystemPartition:
		return TypeEFISystem
	case PartitionTypeLinuxFilesystem:
		return TypeLinuxFilesystem
	case PartitionTypeLinuxLVM:
		return TypeLinuxLVM
	case PartitionTypeLinuxSwap:
		return TypeLinuxSwap
	case PartitionTypeAndroidBoot:
		return TypeAndroidBoot
	case PartitionTypeAndroidSystem:
		return TypeAndroidSystem
	case PartitionTypeAndroidData:
		return TypeAndroidUserdata
	case PartitionTypeAndroidCache:
		return TypeAndroidCache
	default:
		return TypeLegacyMBR
	}
}

// mbrTypeGUID returns the synthetic type GUID assigned to legacy partitions.
func mbrTypeGUID(id MBRPartition) uuid.UUID {
	return uuid.UUID{
		0x00, 0x00, 0x00, byte(id),
		0x12, 0x34,
		0x56, 0x78,
		0x99, 0x88, 0x77, 0x66, 0x55, 0x44, 0x33, 0x22,
	}
}
