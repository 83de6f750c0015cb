// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2020 ODC Network Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"

	"github.com/odcnet/odcd/account"
	"github.com/odcnet/odcd/background"
	"github.com/odcnet/odcd/category"
	"github.com/odcnet/odcd/dataindex"
	"github.com/odcnet/odcd/dataobject"
	"github.com/odcnet/odcd/fault"
	"github.com/odcnet/odcd/odc"
	"github.com/odcnet/odcd/registry"
	"github.com/odcnet/odcd/storage"
)

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		processSetupCommand(program, []string{"version"})
		return
	}

	if len(options["help"]) > 0 {
		processSetupCommand(program, []string{"help"})
		return
	}

	// these commands do not require the configuration and
	// process data needed for initial setup
	if len(arguments) > 0 && processSetupCommand(program, arguments) {
		return
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: only one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	// read options and parse the configuration file
	configurationFile := options["config-file"][0]
	theConfiguration, err := getConfiguration(configurationFile)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// these commands require the configuration and
	// perform enquiries on the configuration
	if len(arguments) > 0 && processConfigCommand(arguments, theConfiguration) {
		return
	}

	// start logging
	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)

	// ------------------
	// start of real main
	// ------------------

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if err != nil {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, theConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(theConfiguration.PidFile)
	}

	// set up the panic log - before any component that might panic
	err = fault.Initialise()
	if nil != err {
		log.Criticalf("fault initialise error: %s", err)
		exitwithstatus.Message("fault initialise error: %s", err)
	}
	defer fault.Finalise()

	// general info
	log.Infof("chain: %s", theConfiguration.Chain)
	log.Infof("database: %q", theConfiguration.Database)

	// start the data storage
	log.Info("initialise storage")
	err = storage.Initialise(theConfiguration.Database.Name)
	if nil != err {
		log.Criticalf("storage initialise error: %s", err)
		exitwithstatus.Message("storage initialise error: %s", err)
	}
	defer storage.Finalise()

	registryAddress, err := parsePrincipal(theConfiguration.Registry.Address)
	if nil != err {
		log.Criticalf("registry address: %q error: %s", theConfiguration.Registry.Address, err)
		exitwithstatus.Message("registry address: %q error: %s", theConfiguration.Registry.Address, err)
	}
	registryAdmin, err := parsePrincipal(theConfiguration.Registry.Admin)
	if nil != err {
		log.Criticalf("registry admin: %q error: %s", theConfiguration.Registry.Admin, err)
		exitwithstatus.Message("registry admin: %q error: %s", theConfiguration.Registry.Admin, err)
	}
	gateIdentity, err := parsePrincipal(theConfiguration.Gate.Identity)
	if nil != err {
		log.Criticalf("gate identity: %q error: %s", theConfiguration.Gate.Identity, err)
		exitwithstatus.Message("gate identity: %q error: %s", theConfiguration.Gate.Identity, err)
	}

	// identifier allocation
	log.Info("initialise registry")
	reg, err := registry.New(theConfiguration.Chain, registryAddress)
	if nil != err {
		log.Criticalf("registry initialise error: %s", err)
		exitwithstatus.Message("registry initialise error: %s", err)
	}

	// the versioned store, addressed through the gate
	log.Info("initialise data object store")
	store := dataobject.New(reg)

	log.Info("initialise data index gate")
	gate, err := dataindex.New(gateIdentity, reg)
	if nil != err {
		log.Criticalf("gate initialise error: %s", err)
		exitwithstatus.Message("gate initialise error: %s", err)
	}

	// category directory and the container layer above it
	log.Info("initialise category directory")
	directory, err := category.New(registryAdmin)
	if nil != err {
		log.Criticalf("category initialise error: %s", err)
		exitwithstatus.Message("category initialise error: %s", err)
	}
	engine := odc.New(directory)

	// these commands require the database and the full stack
	if len(arguments) > 0 && processDataCommand(log, arguments, reg, store, gate, engine) {
		return
	}

	// background tasks
	processes := background.Processes{
		&statisticsLogger{log: logger.New("statistics")},
	}
	bg := background.Start(processes, nil)
	defer bg.Stop()

	log.Infof("registry: %s", reg.Address())
	log.Infof("gate: %s", gate.Identity())
	log.Info("ready")

	// wait for CTRL-C before shutting down to allow manual testing
	if 0 == len(options["quiet"]) {
		fmt.Printf("%s: ready\n", program)
		fmt.Printf("%s: code version: %s\n", program, version)
		fmt.Printf("%s: CTRL-C to shutdown\n", program)
	}

	// turn Signals into channel messages
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	sig := <-ch
	log.Infof("received signal: %v", sig)
	if 0 == len(options["quiet"]) {
		fmt.Printf("%s: received signal: %v\n", program, sig)
		fmt.Printf("%s: shutting down…\n", program)
	}

	log.Info("shutting down…")
}

// convert a base58 configuration item to a principal
func parsePrincipal(s string) (account.Principal, error) {
	principal := account.Principal{}
	if err := principal.UnmarshalText([]byte(s)); nil != err {
		return account.Principal{}, err
	}
	return principal, nil
}
