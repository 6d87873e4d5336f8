package vkres

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Allocation is a range carved out of a pool
type Allocation struct {
	Offset uint64
	Size   uint64
}

func (a *Allocation) String() string {
	return fmt.Sprintf("[%d %d]", a.Offset, a.Size)
}

// PoolAllocator hands out offset ranges from a fixed size pool. Allocations
// are kept sorted by offset and freed ranges become usable again through gap
// scanning.
type PoolAllocator struct {
	Size   uint64
	Align  uint64
	allocs []*Allocation
}

func makeAlignUp(a uint64, align uint64) uint64 {
	m := a % align
	if m == 0 {
		return a
	}
	return (a - m) + align
}

// Allocate reserves a range of the given size using the pool's default
// alignment. Returns nil if the pool cannot satisfy the request.
func (p *PoolAllocator) Allocate(size uint64) *Allocation {
	return p.AllocateAligned(size, p.Align)
}

// AllocateAligned reserves a range of the given size whose offset is aligned
// to align bytes. Returns nil if the pool cannot satisfy the request.
func (p *PoolAllocator) AllocateAligned(size uint64, align uint64) *Allocation {
	if align == 0 {
		align = 1
	}
	if size == 0 || size > p.Size {
		return nil
	}

	if len(p.allocs) == 0 {
		na := &Allocation{Offset: 0, Size: size}
		p.allocs = append(p.allocs, na)
		return na
	}

	// Gap before the first allocation
	if p.allocs[0].Offset >= size {
		na := &Allocation{Offset: 0, Size: size}
		p.allocs = append([]*Allocation{na}, p.allocs...)
		return na
	}

	// Gaps between allocations
	for i := 0; i+1 < len(p.allocs); i++ {
		c := p.allocs[i]
		n := p.allocs[i+1]

		l := makeAlignUp(c.Offset+c.Size, align)
		if n.Offset >= l && n.Offset-l >= size {
			na := &Allocation{Offset: l, Size: size}
			p.allocs = append(p.allocs[:i+1], append([]*Allocation{na}, p.allocs[i+1:]...)...)
			return na
		}
	}

	// Tail of the pool
	last := p.allocs[len(p.allocs)-1]
	l := makeAlignUp(last.Offset+last.Size, align)
	if p.Size >= l && p.Size-l >= size {
		na := &Allocation{Offset: l, Size: size}
		p.allocs = append(p.allocs, na)
		return na
	}

	return nil
}

// Free returns a range to the pool
func (p *PoolAllocator) Free(fa *Allocation) {
	for i, a := range p.allocs {
		if a == fa {
			p.allocs = append(p.allocs[:i], p.allocs[i+1:]...)
			return
		}
	}
}

func (p *PoolAllocator) String() string {
	return fmt.Sprintf("%v", p.allocs)
}

// DefaultChunkSize is the device memory chunk size the allocator requests
// from the driver. Larger resources get a dedicated chunk of their own size.
const DefaultChunkSize = 64 << 20

// chunkAlign is the default sub-allocation alignment inside a chunk; the
// requested alignment wins when it is stricter.
const chunkAlign = 256

type memoryChunk struct {
	memory *DeviceMemory
	pool   *PoolAllocator
	// flags are the property flags of the chunk's memory type, not of the
	// request that created it
	flags     vk.MemoryPropertyFlags
	heapIndex uint32
	dedicated bool
}

// Memory is a block of bound device memory handed out by a MemoryAllocator.
// Images created through the allocator keep their block for their lifetime
// and return it with Free when they are torn down.
type Memory struct {
	allocator  *MemoryAllocator
	chunk      *memoryChunk
	allocation *Allocation
}

func (m *Memory) VKDeviceMemory() vk.DeviceMemory {
	return m.chunk.memory.VKDeviceMemory
}

// Offset is the byte offset of this block inside its device memory chunk
func (m *Memory) Offset() uint64 {
	return m.allocation.Offset
}

func (m *Memory) Size() uint64 {
	return m.allocation.Size
}

// MapPtr returns a host pointer at offset bytes into this block, or nil if
// the backing chunk is not mapped into host memory.
func (m *Memory) MapPtr(offset uint64) unsafe.Pointer {
	base := m.chunk.memory.Ptr
	if base == nil {
		return nil
	}
	return unsafe.Add(base, int(m.allocation.Offset+offset))
}

// Free returns this block to its allocator
func (m *Memory) Free() {
	m.allocator.free(m)
}

// MemoryAllocator supplies bound memory blocks for image resources. It
// allocates device memory in chunks, sub-allocates blocks out of them and
// keeps host visible chunks persistently mapped.
type MemoryAllocator struct {
	Device    *Device
	ChunkSize uint64

	// AllowOvercommit permits allocating more memory from a heap than the
	// device reports for it.
	AllowOvercommit bool

	mu       sync.Mutex
	chunks   []*memoryChunk
	heapUsed map[uint32]uint64
}

// CreateMemoryAllocator creates a memory allocator for this device
func (d *Device) CreateMemoryAllocator(options *Options) *MemoryAllocator {
	var allow bool
	if options != nil {
		allow = options.AllowMemoryOvercommit
	}
	return &MemoryAllocator{
		Device:          d,
		ChunkSize:       DefaultChunkSize,
		AllowOvercommit: allow,
		heapUsed:        make(map[uint32]uint64),
	}
}

// Allocate returns a bound memory block matching the given size, alignment,
// memory type bits and property flags. The type bits come straight from the
// resource's memory requirements.
func (a *MemoryAllocator) Allocate(size uint64, align uint64, memoryTypeBits uint32, flags vk.MemoryPropertyFlags) (*Memory, error) {
	typeIndex, err := a.Device.PhysicalDevice.FindMemoryType(memoryTypeBits, flags)
	if err != nil {
		return nil, err
	}
	typeInfo := a.Device.PhysicalDevice.MemoryTypeInfo(typeIndex)
	if align < chunkAlign {
		align = chunkAlign
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if m := a.chunkBlock(size, align, typeIndex); m != nil {
		return m, nil
	}

	chunkSize := a.ChunkSize
	dedicated := false
	if size > chunkSize {
		chunkSize = size
		dedicated = true
	}

	if a.wouldOvercommit(typeInfo.HeapIndex, typeInfo.HeapSize, chunkSize) {
		return nil, errors.Newf("allocating %d bytes would overcommit memory heap %d", chunkSize, typeInfo.HeapIndex)
	}

	mem, err := a.Device.AllocateDeviceMemory(chunkSize, typeIndex)
	if err != nil {
		return nil, errors.Wrap(err, "failed to allocate memory chunk")
	}

	// Chunks of a host visible memory type are always mapped. A chunk may
	// later serve a request made with different flags that resolved to the
	// same type, and any block out of a host visible type must answer
	// MapPtr.
	if typeInfo.PropertyFlags&vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit) != 0 {
		if _, err := mem.Map(); err != nil {
			mem.Destroy()
			return nil, errors.Wrap(err, "failed to map host visible memory chunk")
		}
	}

	chunk := &memoryChunk{
		memory:    mem,
		pool:      &PoolAllocator{Size: chunkSize, Align: chunkAlign},
		flags:     typeInfo.PropertyFlags,
		heapIndex: typeInfo.HeapIndex,
		dedicated: dedicated,
	}
	a.chunks = append(a.chunks, chunk)
	a.heapUsed[typeInfo.HeapIndex] += chunkSize

	logger().Debug("allocated device memory chunk",
		"bytes", chunkSize, "typeIndex", typeIndex, "dedicated", dedicated)

	alloc := chunk.pool.AllocateAligned(size, align)
	if alloc == nil {
		return nil, errors.Newf("fresh chunk of %d bytes cannot hold %d bytes", chunkSize, size)
	}

	return &Memory{allocator: a, chunk: chunk, allocation: alloc}, nil
}

// chunkBlock tries to carve a block out of an existing chunk of the given
// memory type. caller must hold mu
func (a *MemoryAllocator) chunkBlock(size, align uint64, typeIndex uint32) *Memory {
	for _, c := range a.chunks {
		if c.dedicated || c.memory.TypeIndex != typeIndex {
			continue
		}
		if alloc := c.pool.AllocateAligned(size, align); alloc != nil {
			return &Memory{allocator: a, chunk: c, allocation: alloc}
		}
	}
	return nil
}

// wouldOvercommit reports whether charging chunkSize more bytes to the heap
// would exceed its size. Budgets are per heap, so memory types sharing a
// heap draw from one budget. caller must hold mu
func (a *MemoryAllocator) wouldOvercommit(heapIndex uint32, heapSize, chunkSize uint64) bool {
	if a.AllowOvercommit || heapSize == 0 {
		return false
	}
	return a.heapUsed[heapIndex]+chunkSize > heapSize
}

func (a *MemoryAllocator) free(m *Memory) {
	a.mu.Lock()
	defer a.mu.Unlock()

	m.chunk.pool.Free(m.allocation)

	if m.chunk.dedicated {
		a.releaseChunk(m.chunk)
	}
}

// caller must hold mu
func (a *MemoryAllocator) releaseChunk(c *memoryChunk) {
	for i, chunk := range a.chunks {
		if chunk == c {
			a.chunks = append(a.chunks[:i], a.chunks[i+1:]...)
			break
		}
	}
	a.heapUsed[c.heapIndex] -= c.memory.Size
	c.memory.Destroy()
}

// Destroy frees every chunk held by the allocator. All blocks handed out by
// the allocator must have been freed beforehand.
func (a *MemoryAllocator) Destroy() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, c := range a.chunks {
		c.memory.Destroy()
	}
	a.chunks = nil
	a.heapUsed = make(map[uint32]uint64)
}
