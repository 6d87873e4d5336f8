package vkres

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// vkError converts a Vulkan result code into an error, returning nil on
// success.
func vkError(result vk.Result) error {
	if err := vk.Error(result); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
