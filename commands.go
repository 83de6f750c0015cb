// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2020 ODC Network Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/logger"
	"golang.org/x/crypto/ed25519"

	"github.com/odcnet/odcd/account"
	"github.com/odcnet/odcd/dataindex"
	"github.com/odcnet/odcd/dataobject"
	"github.com/odcnet/odcd/datapoint"
	"github.com/odcnet/odcd/odc"
	"github.com/odcnet/odcd/registry"
	"github.com/odcnet/odcd/util"
)

const (
	publicKeyFilename  = "odc.public"
	privateKeyFilename = "odc.private"
)

// setup command handler
//
// commands that run to create key files; these commands cannot
// access any internal database or states or the configuration file
func processSetupCommand(program string, arguments []string) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {
	case "gen-identity", "id":
		publicFilename := getFilenameWithDirectory(arguments, publicKeyFilename)
		privateFilename := getFilenameWithDirectory(arguments, privateKeyFilename)

		if util.EnsureFileExists(privateFilename) {
			fmt.Printf("generate private key: %q error: file already exists\n", privateFilename)
			exitwithstatus.Exit(1)
		}

		publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
		if nil != err {
			fmt.Printf("generate key pair error: %s\n", err)
			exitwithstatus.Exit(1)
		}

		if err := os.WriteFile(privateFilename, []byte(hex.EncodeToString(privateKey)+"\n"), 0600); nil != err {
			fmt.Printf("write private key: %q error: %s\n", privateFilename, err)
			exitwithstatus.Exit(1)
		}
		if err := os.WriteFile(publicFilename, []byte(hex.EncodeToString(publicKey)+"\n"), 0644); nil != err {
			os.Remove(privateFilename)
			fmt.Printf("write public key: %q error: %s\n", publicFilename, err)
			exitwithstatus.Exit(1)
		}

		fmt.Printf("generated private key: %q\n", privateFilename)
		fmt.Printf("generated public key:  %q\n", publicFilename)
		fmt.Printf("principal: %s\n", account.NewPrincipal(publicKey))

	case "principal", "p":
		if len(arguments) < 1 {
			fmt.Printf("error: missing public key argument\n")
			exitwithstatus.Exit(1)
		}
		publicKey, err := hex.DecodeString(arguments[0])
		if nil != err {
			fmt.Printf("public key: %q error: %s\n", arguments[0], err)
			exitwithstatus.Exit(1)
		}
		fmt.Printf("principal: %s\n", account.NewPrincipal(publicKey))

	case "version", "v":
		fmt.Printf("%s\n", version)

	default:
		switch command {
		case "help", "h", "?":
		case "", " ":
			fmt.Printf("error: missing command\n")
		default:
			fmt.Printf("error: no such command: %q\n", command)
		}
		fmt.Printf("usage: %s [--help] [--verbose] [--quiet] --config-file=FILE [[command|help] arguments...]\n", program)

		fmt.Printf("supported commands:\n\n")
		fmt.Printf("  help                       (h)      - display this message\n\n")
		fmt.Printf("  version                    (v)      - display version string\n\n")

		fmt.Printf("  gen-identity [DIR]         (id)     - create private key in: %q\n", "DIR/"+privateKeyFilename)
		fmt.Printf("                                        and the public key in: %q\n", "DIR/"+publicKeyFilename)
		fmt.Printf("\n")

		fmt.Printf("  principal HEX-PUBLIC-KEY   (p)      - display the principal of a public key\n")
		fmt.Printf("\n")

		fmt.Printf("  start                      (run)    - just run the program, same as no arguments\n")
		fmt.Printf("                                        for convenience when passing script arguments\n")
		fmt.Printf("\n")

		fmt.Printf("  config-test                (cfg)    - just check the configuration file\n")
		fmt.Printf("\n")

		fmt.Printf("  allocate PRINCIPAL         (alloc)  - allocate an identifier owned by PRINCIPAL\n")
		fmt.Printf("\n")

		fmt.Printf("  read ID OPCODE [PAYLOAD]   (r)      - run a hex read operation against an identifier\n")
		fmt.Printf("\n")

		fmt.Printf("  properties TOKEN           (props)  - list all properties active on a container\n")
		fmt.Printf("\n")

		exitwithstatus.Exit(1)
	}

	// indicate processing complete and perform normal exit from main
	return true
}

// configuration file enquiry commands
// have configuration file read and decoded, but nothing else
func processConfigCommand(arguments []string, options *Configuration) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {
	case "config-test", "cfg":
		b, err := json.Marshal(options)
		if err != nil {
			exitwithstatus.Message("error: %s", err)
		}
		var out bytes.Buffer
		json.Indent(&out, b, "", "  ")
		out.WriteTo(os.Stdout)
		os.Stdout.WriteString("\n")

	default: // unknown commands fall through to data command
		return false
	}

	// indicate processing complete and perform normal exit from main
	return true
}

// data command handler
//
// the storage pools are enabled so these commands can access and/or
// change the database
func processDataCommand(log *logger.L, arguments []string, reg registry.Registry, store dataobject.Store, gate dataindex.Gate, engine odc.ODC) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {

	case "start", "run":
		return false // continue processing

	case "allocate", "alloc":
		if len(arguments) < 1 {
			exitwithstatus.Message("missing owner principal argument")
		}
		owner, err := parsePrincipal(arguments[0])
		if nil != err {
			exitwithstatus.Message("owner: %q error: %s", arguments[0], err)
		}

		id, err := reg.Allocate(owner)
		if nil != err {
			exitwithstatus.Message("allocate error: %s", err)
		}
		log.Infof("allocated: %s owner: %s", id, owner)
		fmt.Printf("%s\n", id)

	case "read", "r":
		if len(arguments) < 2 {
			exitwithstatus.Message("missing identifier and/or opcode arguments")
		}
		id := datapoint.DataPoint{}
		if err := id.UnmarshalText([]byte(arguments[0])); nil != err {
			exitwithstatus.Message("identifier: %q error: %s", arguments[0], err)
		}
		opcodeBytes, err := hex.DecodeString(arguments[1])
		if nil != err {
			exitwithstatus.Message("opcode: %q error: %s", arguments[1], err)
		}
		operation, err := dataobject.OpCodeFromBytes(opcodeBytes)
		if nil != err {
			exitwithstatus.Message("opcode: %q error: %s", arguments[1], err)
		}
		payload := []byte{}
		if len(arguments) > 2 {
			payload, err = hex.DecodeString(arguments[2])
			if nil != err {
				exitwithstatus.Message("payload: %q error: %s", arguments[2], err)
			}
		}

		result, err := gate.Read(store, id, operation, payload)
		if nil != err {
			exitwithstatus.Message("read error: %s", err)
		}
		fmt.Printf("%x\n", result)

	case "properties", "props":
		if len(arguments) < 1 {
			exitwithstatus.Message("missing token argument")
		}
		n, err := strconv.ParseUint(arguments[0], 10, 64)
		if nil != err {
			exitwithstatus.Message("error in token number: %s", err)
		}

		properties, err := engine.GetAllProperties(odc.TokenId(n))
		if nil != err {
			exitwithstatus.Message("properties error: %s", err)
		}
		for _, property := range properties {
			fmt.Printf("%x\n", property)
		}

	default:
		exitwithstatus.Message("error: no such command: %q", command)
	}

	// indicate processing complete and perform normal exit from main
	return true
}

// get the directory prefixed file name for generated keys
func getFilenameWithDirectory(arguments []string, name string) string {
	directory := "."
	if len(arguments) >= 1 && "" != arguments[0] {
		directory = arguments[0]
	}
	return filepath.Join(directory, name)
}
