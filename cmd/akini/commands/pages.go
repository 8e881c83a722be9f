package commands

import (
	"fmt"
	"io"
	"os"
	"path"
	"sort"

	"github.com/ddddddO/gtree"

	"git.home.luguber.info/inful/akini/internal/config"
	"git.home.luguber.info/inful/akini/internal/page"
)

// PagesCmd implements the 'pages' command.
type PagesCmd struct{}

func (p *PagesCmd) Run(g *Global, root *CLI) error {
	h, _, err := loadProject(g, root, root.Dir)
	if err != nil {
		return err
	}
	return writePageTree(os.Stdout, h.Pages())
}

// writePageTree prints every directory on the way to a page definition below
// pagesRoot. Directories holding a page carry its identity in brackets.
func writePageTree(w io.Writer, pagesRoot string) error {
	pathnames, err := page.FindDefinitions(pagesRoot)
	if err != nil {
		return err
	}
	sort.Strings(pathnames)

	isPage := make(map[string]bool, len(pathnames))
	for _, p := range pathnames {
		isPage[p] = true
	}

	tree := gtree.NewRoot(nodeLabel(config.PagesDir, "", isPage))
	nodes := map[string]*gtree.Node{"": tree}
	var ensure func(pathname string) *gtree.Node
	ensure = func(pathname string) *gtree.Node {
		if n, ok := nodes[pathname]; ok {
			return n
		}
		parent := path.Dir(pathname)
		if parent == "." {
			parent = ""
		}
		n := ensure(parent).Add(nodeLabel(path.Base(pathname), pathname, isPage))
		nodes[pathname] = n
		return n
	}
	for _, p := range pathnames {
		ensure(p)
	}

	if err := gtree.OutputFromRoot(w, tree); err != nil {
		return fmt.Errorf("render page tree: %w", err)
	}
	return nil
}

func nodeLabel(name, pathname string, isPage map[string]bool) string {
	if isPage[pathname] {
		return fmt.Sprintf("%s [%s]", name, page.Identity(pathname))
	}
	return name
}
