package vkres

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

var end = "\x00"
var endChar byte = '\x00'

// ToBytes will take an unsafe.Pointer and length in bytes and convert it
// to a byte slice
func ToBytes(ptr unsafe.Pointer, lenInBytes int) []byte {
	const m = 0x7fffffff
	return (*[m]byte)(ptr)[:lenInBytes]
}

func safeString(s string) string {
	if len(s) == 0 {
		return end
	}
	if s[len(s)-1] != endChar {
		return s + end
	}
	return s
}

func safeStrings(list []string) []string {
	for i := range list {
		list[i] = safeString(list[i])
	}
	return list
}

func vkBool(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}

func maxUint32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
