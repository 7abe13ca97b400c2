package scope

import (
	"fmt"
	"strings"

	"github.com/HershyOrg/dtrader/value"
	"github.com/google/uuid"
)

// Chart is a chart definition collected while a script runs. The
// interpreter only stores and lists charts; presenting them is up to the caller.
type Chart struct {
	ID   uuid.UUID
	Name string
	Args []value.Value
}

func NewChart(name string, args []value.Value) *Chart {
	return &Chart{
		ID:   uuid.New(),
		Name: name,
		Args: args,
	}
}

func (c *Chart) String() string {
	parts := make([]string, 0, len(c.Args))
	for _, a := range c.Args {
		parts = append(parts, value.Describe(a))
	}
	return fmt.Sprintf("chart %s (%s) [%s]", c.Name, c.ID, strings.Join(parts, ", "))
}
