// machine-api: Additive Manufacturing Device Control Service
// Copyright (C) 2026  The Machine API Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/kittycad/machine-api/internal/build"
	"github.com/kittycad/machine-api/internal/config"
	"github.com/kittycad/machine-api/internal/control"
	"github.com/kittycad/machine-api/internal/discovery"
	"github.com/kittycad/machine-api/internal/slicer"
)

// app holds the flags shared by every subcommand.
type app struct {
	configPath string
	deviceID   string
}

var a = &app{}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "machine-cli",
	Short:         "Operator CLI for a single configured additive-manufacturing device",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "machine-api.toml", "path to the machines TOML config file")
	rootCmd.PersistentFlags().StringVarP(&a.deviceID, "device", "d", "", "device id from the config's [machines.<id>] table")
	rootCmd.MarkPersistentFlagRequired("device")

	rootCmd.AddCommand(infoCmd, stopCmd, estopCmd, buildCmd)
}

// connect loads the config file and constructs a one-shot driver for
// a.deviceID with discovery.ConnectOne, bypassing the long-lived C8
// discovery loops; machine-cli is meant for local testing and scripting
// against one device at a time, not for operating a fleet.
func connect() (control.Control, error) {
	data, err := os.ReadFile(a.configPath)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", a.configPath, err)
	}
	var file config.File
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", a.configPath, err)
	}
	if err := file.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", a.configPath, err)
	}

	machine, ok := file.Machines[a.deviceID]
	if !ok {
		return nil, fmt.Errorf("no machine %q in %s", a.deviceID, a.configPath)
	}
	return discovery.ConnectOne(machine)
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the device's make/model, current state, and progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		driver, err := connect()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		info, err := driver.MachineInfo(ctx)
		if err != nil {
			return fmt.Errorf("machine info: %w", err)
		}
		state, err := driver.State(ctx)
		if err != nil {
			return fmt.Errorf("state: %w", err)
		}

		fmt.Printf("device:       %s\n", a.deviceID)
		fmt.Printf("manufacturer: %s\n", info.MakeModel.Manufacturer)
		fmt.Printf("model:        %s\n", info.MakeModel.Model)
		fmt.Printf("type:         %s\n", info.Type)
		fmt.Printf("state:        %s\n", state)

		if progress, ok, err := driver.Progress(ctx); err == nil && ok {
			fmt.Printf("progress:     %.0f%%\n", progress*100)
		}
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Request orderly cessation of the current job",
	RunE: func(cmd *cobra.Command, args []string) error {
		driver, err := connect()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := driver.Stop(ctx); err != nil {
			return fmt.Errorf("stop: %w", err)
		}
		fmt.Println("stop requested.")
		return nil
	},
}

var estopCmd = &cobra.Command{
	Use:   "estop",
	Short: "Request immediate shutdown of motion and heaters (not a substitute for a physical e-stop)",
	RunE: func(cmd *cobra.Command, args []string) error {
		driver, err := connect()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := driver.EmergencyStop(ctx); err != nil {
			return fmt.Errorf("emergency stop: %w", err)
		}
		fmt.Println("emergency stop requested.")
		return nil
	},
}

var buildFlags struct {
	jobName    string
	designPath string
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Slice a design file and hand the resulting artifact to the device",
	RunE: func(cmd *cobra.Command, args []string) error {
		driver, err := connect()
		if err != nil {
			return err
		}

		data, err := os.ReadFile(a.configPath)
		if err != nil {
			return fmt.Errorf("read config %s: %w", a.configPath, err)
		}
		var file config.File
		if err := toml.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("parse config %s: %w", a.configPath, err)
		}
		machine := file.Machines[a.deviceID]

		s, err := slicerFor(machine.Slicer)
		if err != nil {
			return err
		}

		ctx := context.Background()
		hw, err := driver.HardwareConfiguration(ctx)
		if err != nil {
			return fmt.Errorf("hardware configuration: %w", err)
		}

		pipeline := build.New(s)
		if err := pipeline.Run(ctx, driver, buildFlags.jobName, buildFlags.designPath, hw); err != nil {
			return fmt.Errorf("build: %w", err)
		}
		fmt.Printf("build %q accepted.\n", buildFlags.jobName)
		return nil
	},
}

func slicerFor(cfg config.SlicerConfig) (slicer.Slicer, error) {
	switch cfg.Type {
	case config.SlicerPrusa:
		return slicer.Prusa{ConfigPath: cfg.Config}, nil
	case config.SlicerOrca:
		return slicer.Orca{ConfigDir: cfg.Config}, nil
	default:
		return nil, fmt.Errorf("machines.%s.slicer: unknown type %q", a.deviceID, cfg.Type)
	}
}

func init() {
	buildCmd.Flags().StringVar(&buildFlags.jobName, "job", "", "job name to report to the device")
	buildCmd.Flags().StringVar(&buildFlags.designPath, "design", "", "path to the STL/3MF design file to slice")
	buildCmd.MarkFlagRequired("job")
	buildCmd.MarkFlagRequired("design")
}
