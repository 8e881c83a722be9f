package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/akini/internal/config"
	"git.home.luguber.info/inful/akini/internal/page"
)

const scaffoldPage = `title: akini
components:
  - raw: |
      <h1>Hello from akini</h1>
`

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite an existing akini.yaml"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	return RunInit(root.Dir, i.Force)
}

// RunInit scaffolds a project in dir: the manifest, a root page and an empty
// components directory. An existing root page is left alone.
func RunInit(dir string, force bool) error {
	fmt.Println("Initializing akini project")
	fmt.Printf("Writing %s to %s\n", config.ManifestFile, dir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		fmt.Println("Initialization failed")
		return err
	}
	if err := config.Init(dir, force); err != nil {
		fmt.Println("Initialization failed")
		return err
	}
	for _, sub := range []string{config.PagesDir, config.ComponentsDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o750); err != nil {
			return err
		}
	}
	rootPage := filepath.Join(dir, config.PagesDir, page.DefinitionFile)
	if _, err := os.Stat(rootPage); os.IsNotExist(err) {
		if err := os.WriteFile(rootPage, []byte(scaffoldPage), 0o600); err != nil {
			return err
		}
	}
	fmt.Println("initialized successfully")
	return nil
}
