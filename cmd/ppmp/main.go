package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ppmp/internal/clock"
	"github.com/smallbiznis/ppmp/internal/config"
	"github.com/smallbiznis/ppmp/internal/migration"
	"github.com/smallbiznis/ppmp/internal/observability"
	"github.com/smallbiznis/ppmp/internal/server"
	"github.com/smallbiznis/ppmp/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// HTTP surface and the domain modules behind it
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
