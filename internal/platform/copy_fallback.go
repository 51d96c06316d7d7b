//go:build !linux && !darwin

package platform

// CopyFile falls back to read/write on unsupported platforms.
func CopyFile(params CopyParams) (CopyResult, error) {
	preallocate(params.DstFd, params.Size)
	return copyReadWrite(params)
}
