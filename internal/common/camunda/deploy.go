package camunda

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// BPMNFiles lists the .bpmn files directly under dir in name order.
func BPMNFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".bpmn") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// DeployDir deploys every process model under dir and returns the files
// deployed. The broker skips resources whose content has not changed.
func (c *Client) DeployDir(ctx context.Context, dir string) ([]string, error) {
	files, err := BPMNFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("read process models: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .bpmn files in %s", dir)
	}

	for _, path := range files {
		if _, err := c.client.NewDeployResourceCommand().AddResourceFile(path).Send(ctx); err != nil {
			return nil, fmt.Errorf("deploy %s: %w", filepath.Base(path), err)
		}
	}
	return files, nil
}
