package main

import (
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	rootcmd "github.com/sorvi-platform/harha/cmd"
	"github.com/sorvi-platform/harha/pkg/vfs"
)

var serveAddress string

var serveCommand = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tree read-only over HTTP",
	Args:  cobra.NoArgs,
	Run: rootcmd.Mainify(func(cmd *cobra.Command, args []string) error {
		tree, closer, err := openTree()
		if err != nil {
			return err
		}
		defer closer()

		handler := &treeHandler{tree: tree, logger: rootLogger.Sublogger("serve")}
		rootLogger.Infof("serving on %s", serveAddress)
		return http.ListenAndServe(serveAddress, handler)
	}),
}

func init() {
	serveCommand.Flags().StringVar(&serveAddress, "address", "127.0.0.1:8088", "address to listen on")
}

type treeHandler struct {
	tree   *vfs.VFS
	logger interface{ Infof(string, ...interface{}) }
}

func (h *treeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path, err := resolveArg(r.URL.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	st, err := h.tree.Stat(vfs.RootDir, path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	if st.Kind == vfs.KindDir {
		h.serveDir(w, path)
		return
	}
	h.serveFile(w, path)
}

func (h *treeHandler) serveDir(w http.ResponseWriter, path vfs.SafePath) {
	dir, err := h.tree.OpenDir(vfs.RootDir, path, vfs.DirOpenOptions{Iterate: true})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer h.tree.CloseDir(dir)

	it, err := h.tree.Iterate(dir)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer it.Deinit()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	for {
		e, err := it.Next()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if e == nil {
			return
		}
		suffix := ""
		if e.Stat.Kind == vfs.KindDir {
			suffix = "/"
		}
		fmt.Fprintln(w, e.Basename+suffix)
	}
}

func (h *treeHandler) serveFile(w http.ResponseWriter, path vfs.SafePath) {
	f, err := h.tree.OpenFile(vfs.RootDir, path, vfs.FileOpenOptions{Mode: vfs.ReadOnly})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer h.tree.CloseFile(f)

	buf := make([]byte, 32*1024)
	for {
		n, err := h.tree.Readv(f, [][]byte{buf})
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
		}
		if n == 0 && err == nil {
			return
		}
		if err != nil {
			if err != io.EOF {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
	}
}
