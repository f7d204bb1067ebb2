package window

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Key codes passed to the key callbacks. They are the GLFW key values.
const (
	KeySpace uint32 = 32
	KeyC     uint32 = 67
	KeyD     uint32 = 68
	KeyL     uint32 = 76
	KeyF1    uint32 = 290
	KeyF2    uint32 = 291
)

// Window is the platform window the backend presents into. It turns platform events into
// callbacks and hands out the WebGPU surface descriptor of its client area.
type Window interface {
	// SetResizeCallback sets the function called when the framebuffer size changes.
	//
	// Parameters:
	//   - callback: function receiving the new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for mouse wheel events.
	//
	// Parameters:
	//   - callback: function receiving the vertical scroll delta, positive away from the user
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the callback for key presses, e.g. KeyF1.
	//
	// Parameters:
	//   - callback: function receiving the key code
	SetKeyDownCallback(callback func(keyCode uint32))

	// SurfaceDescriptor returns the descriptor the backend creates its surface from.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform surface descriptor, or nil after Close
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the window is still open.
	//
	// Returns:
	//   - bool: false once the window was closed or Escape was pressed
	IsRunning() bool

	// PollEvents dispatches pending platform events to the callbacks without blocking.
	//
	// Returns:
	//   - bool: IsRunning after the events were handled
	PollEvents() bool

	// Close destroys the window.
	//
	// Returns:
	//   - error: an error when the window was already closed
	Close() error

	// Size returns the framebuffer size in pixels.
	//
	// Returns:
	//   - int: width in pixels
	//   - int: height in pixels
	Size() (int, int)
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	title string

	// size limits applied while the user resizes the window
	minWidth, minHeight int
	maxWidth, maxHeight int

	// framebuffer size in pixels
	width, height int

	internalWindow *glfwWindow

	onResize  func(width, height int)
	onScroll  func(delta float32)
	onKeyDown func(keyCode uint32)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a window. Must be called from the main goroutine.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
//   - error: an error when the platform window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:     "oxylight",
		minWidth:  320,
		minHeight: 200,
		maxWidth:  3840,
		maxHeight: 2160,
		width:     1280,
		height:    720,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("failed to create platform window: %w", err)
	}
	return w, nil
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) PollEvents() bool {
	return platformProcessMessages(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) Size() (int, int) {
	return w.width, w.height
}
