/*
Package vkres implements the image resource layer of a Vulkan based renderer.
It wraps native Vulkan image and image view handles, manages the device memory
bound to them, and answers the subresource and layout questions a rendering
pipeline needs to ask while recording work.

The two central objects are Image and ImageView. An Image either owns its
native handle together with the memory block backing it, or merely borrows a
handle which is owned elsewhere (swapchain images are the typical case); a
borrowed image never tears down native state when it is destroyed. An
ImageView holds a strong reference to its parent image and caches one native
view handle per view type, so a layered image can also be addressed as a flat
2D view, or a cube image as a 2D array, without creating additional view
objects.

Memory for owned images comes from a MemoryAllocator, which carves blocks out
of larger device memory chunks and keeps host visible chunks persistently
mapped. Pixel format metadata, most importantly the full aspect mask of a
format, comes from the package level format table via GetFormatInfo.

Beyond the resource layer the package carries the machinery a renderer built
on it needs to feed: a PipelineManager which deduplicates compute and graphics
pipelines by their shader sets, and a PipelineCompiler which compiles graphics
pipeline variants on background workers. Image views track how many
consecutive frames they have been bound as render targets; a view with a
stable multi frame history reports that asynchronous compilation is safe via
GetRtBindingAsyncCompilationCompat, and GetPipelineHandle with async enabled
will then queue the compile and return a null handle instead of stalling the
frame.

To mitigate the drawback of wrapping a very large API, native Vulkan handles
and structures are exposed on all objects with a 'VK' prefix in the name, so
applications aren't limited by what this package provides.

The package performs no rendering and submits no commands. All mutation is
expected to happen on the thread that drives frame submission; the pipeline
manager and compiler are the only internally synchronized objects.
*/
package vkres
