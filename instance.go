package vkres

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Initialize loads the Vulkan loader with the default instance proc address.
// Call this before creating an instance when not using a windowing layer
// which supplies its own proc address.
func Initialize() error {
	if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
		return errors.Wrap(err, "failed to set instance proc addr")
	}
	if err := vk.Init(); err != nil {
		return errors.Wrap(err, "failed to initialize vulkan")
	}
	return nil
}

// InitializeWithProcAddr loads the Vulkan loader using a proc address
// supplied by a windowing layer such as glfw.
func InitializeWithProcAddr(procAddr unsafe.Pointer) error {
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return errors.Wrap(err, "failed to initialize vulkan")
	}
	return nil
}

// Version is used to specify versions of components
type Version struct {
	Major int
	Minor int
	Patch int
}

// VKVersion returns a Vulkan compatible version representation
func (v *Version) VKVersion() uint32 {
	return vk.MakeVersion(v.Major, v.Minor, v.Patch)
}

// App is used to provide information about this specific application to Vulkan
type App struct {
	// Name the name of the application
	Name string
	// EngineName the name of the engine associated with the application
	EngineName string
	// Version the version of the application
	Version Version
	// APIVersion the expected minimum version of the Vulkan API (i.e. 1.1.0)
	APIVersion Version

	// EnabledLayers the enabled layers
	EnabledLayers []string

	// EnabledExtensions the enabled extensions
	EnabledExtensions []string
}

// EnableLayer enables the named instance layer
func (a *App) EnableLayer(layer string) *App {
	a.EnabledLayers = append(a.EnabledLayers, layer)
	return a
}

// EnableExtension enables the named instance extension
func (a *App) EnableExtension(extension string) *App {
	a.EnabledExtensions = append(a.EnabledExtensions, extension)
	return a
}

func (a *App) VKApplicationInfo() vk.ApplicationInfo {
	var appInfo = vk.ApplicationInfo{}
	appInfo.SType = vk.StructureTypeApplicationInfo
	appInfo.PApplicationName = safeString(a.Name)
	appInfo.PEngineName = safeString(a.EngineName)
	appInfo.ApplicationVersion = a.Version.VKVersion()
	appInfo.EngineVersion = a.Version.VKVersion()
	appInfo.ApiVersion = a.APIVersion.VKVersion()
	return appInfo
}

// CreateInstance creates an instance from the application description
func (a *App) CreateInstance() (*Instance, error) {
	appInfo := a.VKApplicationInfo()

	var createInfo = vk.InstanceCreateInfo{}
	createInfo.SType = vk.StructureTypeInstanceCreateInfo
	createInfo.PApplicationInfo = &appInfo

	if len(a.EnabledLayers) > 0 {
		createInfo.EnabledLayerCount = uint32(len(a.EnabledLayers))
		createInfo.PpEnabledLayerNames = safeStrings(a.EnabledLayers)
	}

	if len(a.EnabledExtensions) > 0 {
		createInfo.EnabledExtensionCount = uint32(len(a.EnabledExtensions))
		createInfo.PpEnabledExtensionNames = safeStrings(a.EnabledExtensions)
	}

	var instance vk.Instance

	if err := vkError(vk.CreateInstance(&createInfo, nil, &instance)); err != nil {
		return nil, errors.Wrap(err, "failed to create instance")
	}

	if err := vk.InitInstance(instance); err != nil {
		return nil, errors.Wrap(err, "failed to initialize instance")
	}

	return &Instance{App: a, VKInstance: instance}, nil
}

type Instance struct {
	App        *App
	VKInstance vk.Instance
}

func (i *Instance) Destroy() {
	vk.DestroyInstance(i.VKInstance, nil)
}

// PhysicalDevices enumerates the physical devices available to this instance
func (i *Instance) PhysicalDevices() ([]*PhysicalDevice, error) {
	var count uint32
	if err := vkError(vk.EnumeratePhysicalDevices(i.VKInstance, &count, nil)); err != nil {
		return nil, err
	}

	devices := make([]vk.PhysicalDevice, count)
	if err := vkError(vk.EnumeratePhysicalDevices(i.VKInstance, &count, devices)); err != nil {
		return nil, err
	}

	ret := make([]*PhysicalDevice, 0, count)
	for _, d := range devices {
		var props vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(d, &props)
		props.Deref()
		ret = append(ret, &PhysicalDevice{
			VKPhysicalDevice:           d,
			VKPhysicalDeviceProperties: props,
		})
	}
	return ret, nil
}
