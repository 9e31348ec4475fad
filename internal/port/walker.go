package port

type FileWalker interface {
	Walk(root string) ([]FileInfo, error)
}

type FileInfo struct {
	Name string
	Path string
	Size int64
}

type FileReader interface {
	ReadFile(path string) (string, error)
}
