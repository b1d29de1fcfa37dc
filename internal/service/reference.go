package service

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// ReferenceGenerator issues payment references such as CM-1A2B3C4D5E6F. Snowflake ids are
// unique per node, so every running instance needs its own node id.
type ReferenceGenerator struct {
	node   *snowflake.Node
	prefix string
}

func NewReferenceGenerator(nodeID int64) (*ReferenceGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("reference generator: %w", err)
	}
	return &ReferenceGenerator{node: node, prefix: "CM"}, nil
}

func (g *ReferenceGenerator) Next() string {
	return g.prefix + "-" + strings.ToUpper(g.node.Generate().Base36())
}
