package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/milkround/milkround/internal/clock"
	"github.com/milkround/milkround/internal/config"
	"github.com/milkround/milkround/internal/migration"
	"github.com/milkround/milkround/internal/observability"
	"github.com/milkround/milkround/internal/server"
	"github.com/milkround/milkround/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
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
