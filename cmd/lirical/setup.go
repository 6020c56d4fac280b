package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/setup"
)

var cmdSetup = &cli.Command{
	Name:  "setup",
	Usage: "Register the MCP server with a desktop client and check reference data",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "client-config",
			Usage: "desktop client configuration file, defaults to the platform location",
		},
	},
	Commands: []*cli.Command{
		{
			Name:  "register",
			Usage: "Add lirical to the client's MCP servers",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "binary", Usage: "path to the lirical executable"},
			},
			Action: setupRegister,
		},
		{
			Name:   "status",
			Usage:  "Show the registration and any missing reference files",
			Action: setupStatus,
		},
	},
}

func clientConfigPath(cmd *cli.Command) (string, error) {
	if path := cmd.String("client-config"); path != "" {
		return path, nil
	}
	return setup.ClientConfigPath()
}

func setupRegister(ctx context.Context, cmd *cli.Command) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	path, err := clientConfigPath(cmd)
	if err != nil {
		return err
	}

	entry, err := setup.Register(path, setup.Options{
		BinaryPath: cmd.String("binary"),
		ConfigFile: cmd.String("config"),
		DataDir:    env.config.GetConfig().Data.Directory,
	})
	if err != nil {
		return err
	}
	fmt.Printf("registered %s in %s: %s %v\n", setup.ServerName, path, entry.Command, entry.Args)
	return nil
}

func setupStatus(ctx context.Context, cmd *cli.Command) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	path, err := clientConfigPath(cmd)
	if err != nil {
		return err
	}

	data := env.config.GetConfig().Data
	files := []string{data.OntologyFile, data.AnnotationFile, data.GeneDiseaseFile}
	status := setup.GetStatus(path, data.Directory, files)

	fmt.Printf("client config: %s\n", status.ClientConfigPath)
	fmt.Printf("registered:    %t\n", status.Registered)
	fmt.Printf("data dir:      %s\n", status.DataDir)
	for _, issue := range status.Issues {
		fmt.Printf("  - %s\n", issue)
	}
	if len(status.Issues) > 0 {
		return fmt.Errorf("%d setup issues found", len(status.Issues))
	}
	return nil
}
