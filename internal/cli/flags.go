package cli

import (
	"strings"

	"github.com/spf13/pflag"
)

// csvValue is a pflag.Value holding a comma-separated identifier list.
// Items are trimmed and empty items dropped.
type csvValue struct {
	ids []string
}

var _ pflag.Value = (*csvValue)(nil)

func (c *csvValue) String() string {
	return strings.Join(c.ids, ",")
}

func (c *csvValue) Set(s string) error {
	c.ids = splitCSV(s)
	return nil
}

func (c *csvValue) Type() string {
	return "identifiers"
}

func splitCSV(s string) []string {
	ids := []string{}
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			ids = append(ids, item)
		}
	}
	return ids
}
