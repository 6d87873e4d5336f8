package vkres

import (
	"testing"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

func TestAlign(t *testing.T) {
	if makeAlignUp(12, 3) != 12 {
		t.Fail()
	}

	if makeAlignUp(10, 3) != 12 {
		t.Fail()
	}
}

func TestPoolAllocator(t *testing.T) {

	a := PoolAllocator{Size: 1024, Align: 1}

	ra := a.Allocate(2048)
	if ra != nil {
		t.Error("Failed first allocation")
	}

	ra = a.Allocate(512)
	fa := ra
	if ra == nil {
		t.Error("Failed 2nd allocation")
	}

	ra = a.Allocate(768)
	if ra != nil {
		t.Error("Failed 3rd allocation")
	}

	ra = a.Allocate(500)
	k := ra
	if ra == nil {
		t.Error("Failed 4th allocation")
	}

	ra = a.Allocate(50)
	if ra != nil {
		t.Error("Failed 5th allocation")
	}

	ra = a.Allocate(5)
	if ra == nil {
		t.Error("Failed 6th allocation")
	}

	ra = a.Allocate(20)
	if ra != nil {
		t.Error("Failed 7th allocation")
	}

	a.Free(k)
	ra = a.Allocate(500)
	if ra == nil {
		t.Error("Failed 8th allocation")
	}

	a.Free(fa)
	ra = a.Allocate(20)
	if ra == nil {
		t.Error("Failed 9th allocation")
	}

	ra = a.Allocate(40)
	if ra == nil {
		t.Error("Failed 10th allocation")
	}

	ra = a.Allocate(12)
	if ra == nil {
		t.Error("Failed 11th allocation")
	}
	ra = a.Allocate(500)
	if ra != nil {
		t.Error("Failed 12th allocation")
	}
	ra = a.Allocate(5)
	if ra == nil {
		t.Error("Failed 13th allocation")
	}
}

func TestPoolAllocatorAlignment(t *testing.T) {
	a := PoolAllocator{Size: 1024, Align: 1}

	first := a.Allocate(10)
	if first == nil || first.Offset != 0 {
		t.Errorf("expected first allocation at offset 0, got %v", first)
	}

	aligned := a.AllocateAligned(10, 256)
	if aligned == nil {
		t.Fatal("aligned allocation failed")
	}
	if aligned.Offset%256 != 0 {
		t.Errorf("offset %d is not 256 byte aligned", aligned.Offset)
	}
	if aligned.Offset < first.Offset+first.Size {
		t.Errorf("aligned allocation overlaps previous one")
	}
}

func TestPoolAllocatorZeroSize(t *testing.T) {
	a := PoolAllocator{Size: 1024, Align: 1}
	if a.Allocate(0) != nil {
		t.Error("zero size allocation should fail")
	}
}

func TestChunkReuseIgnoresRequestFlags(t *testing.T) {
	buf := make([]byte, 1024)

	// A chunk of a memory type which is both device local and host visible
	// stays mapped for its lifetime; blocks carved out of it must answer
	// MapPtr no matter what flags the request that reused it carried.
	a := &MemoryAllocator{ChunkSize: 1024, heapUsed: make(map[uint32]uint64)}
	a.chunks = append(a.chunks, &memoryChunk{
		memory: &DeviceMemory{Size: 1024, TypeIndex: 0, Ptr: unsafe.Pointer(&buf[0])},
		pool:   &PoolAllocator{Size: 1024, Align: chunkAlign},
		flags: vk.MemoryPropertyFlags(
			vk.MemoryPropertyDeviceLocalBit | vk.MemoryPropertyHostVisibleBit),
	})

	m1 := a.chunkBlock(64, chunkAlign, 0)
	if m1 == nil {
		t.Fatal("first block not carved from the chunk")
	}
	if m1.MapPtr(0) == nil {
		t.Error("block from a mapped chunk must expose a map pointer")
	}

	m2 := a.chunkBlock(64, chunkAlign, 0)
	if m2 == nil {
		t.Fatal("second block not carved from the chunk")
	}
	if m2.MapPtr(0) == nil {
		t.Error("reused chunk must still expose a map pointer")
	}
	if m2.Offset() == m1.Offset() {
		t.Error("blocks from one chunk must not overlap")
	}

	if a.chunkBlock(64, chunkAlign, 1) != nil {
		t.Error("a chunk of a different memory type must not be reused")
	}
}

func TestOvercommitBudgetPerHeap(t *testing.T) {
	a := &MemoryAllocator{heapUsed: make(map[uint32]uint64)}

	const heapSize = 1 << 20

	if a.wouldOvercommit(0, heapSize, heapSize/2) {
		t.Error("first chunk fits the heap")
	}
	a.heapUsed[0] += heapSize / 2

	// A second memory type backed by the same heap draws from the same
	// budget, so it only sees the remainder.
	if a.wouldOvercommit(0, heapSize, heapSize/2) {
		t.Error("second chunk exactly fills the heap")
	}
	a.heapUsed[0] += heapSize / 2

	if !a.wouldOvercommit(0, heapSize, 1) {
		t.Error("full heap must reject further chunks")
	}

	if a.wouldOvercommit(1, heapSize, heapSize/2) {
		t.Error("a different heap has its own budget")
	}

	if a.wouldOvercommit(2, 0, heapSize) {
		t.Error("a heap of unknown size is not budgeted")
	}

	a.AllowOvercommit = true
	if a.wouldOvercommit(0, heapSize, 1) {
		t.Error("the overcommit option disables the budget")
	}
}
