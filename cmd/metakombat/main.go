// Copyright 2018 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

// metakombat connects a wallet to the MyEpicGame contract and serves the
// resulting game session to a UI.
//
// It checks the wallet for an authorized account, reads the account's
// character from the contract and exposes the session over JSON-RPC
// (namespace "game", HTTP and WebSocket).  One-shot commands drive the same
// session from the terminal.
//
// Usage:
//   metakombat --contract <address> [--rpc <endpoint>] [--wallet <endpoint>] [--listen <addr>]
//   metakombat status|connect|mint|attack|info --contract <address>
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/aroralanuk/metakombat-frontend/config"
	"github.com/aroralanuk/metakombat-frontend/game"
	"github.com/aroralanuk/metakombat-frontend/wallet"
)

var (
	app = cli.NewApp()

	// Flags
	rpcFlag = cli.StringFlag{
		Name:  "rpc",
		Usage: "Ethereum JSON-RPC endpoint (e.g. http://localhost:8545)",
	}
	walletFlag = cli.StringFlag{
		Name:  "wallet",
		Usage: `Wallet provider endpoint ("rpc" reuses --rpc, "none" runs without a wallet)`,
	}
	contractFlag = cli.StringFlag{
		Name:  "contract",
		Usage: "Deployed MyEpicGame contract address",
	}
	listenFlag = cli.StringFlag{
		Name:  "listen",
		Usage: "HTTP/WebSocket listen address for the session API",
	}
	followFlag = cli.DurationFlag{
		Name:  "follow",
		Usage: "Poll the wallet for account switches at this interval (0 = off)",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=trace",
	}
	indexFlag = cli.Uint64Flag{
		Name:  "index",
		Usage: "Index of the default character to mint",
	}

	commonFlags = []cli.Flag{
		rpcFlag,
		walletFlag,
		contractFlag,
		verbosityFlag,
	}
)

func init() {
	app.Name = "metakombat"
	app.Usage = "MetaKombat wallet and game session client"
	app.Version = "0.1.0"
	app.Action = serve
	app.Flags = append([]cli.Flag{listenFlag, followFlag}, commonFlags...)
	app.Commands = []cli.Command{
		{
			Name:   "status",
			Usage:  "Check the wallet and print the session",
			Action: statusCmd,
			Flags:  commonFlags,
		},
		{
			Name:   "connect",
			Usage:  "Ask the wallet to authorize this client",
			Action: connectCmd,
			Flags:  commonFlags,
		},
		{
			Name:   "mint",
			Usage:  "Mint one of the default characters",
			Action: mintCmd,
			Flags:  append([]cli.Flag{indexFlag}, commonFlags...),
		},
		{
			Name:   "attack",
			Usage:  "Attack the boss with the connected character",
			Action: attackCmd,
			Flags:  commonFlags,
		},
		{
			Name:   "info",
			Usage:  "Print the default characters and the boss",
			Action: infoCmd,
			Flags:  commonFlags,
		},
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies flags set on the command line.
func loadConfig(ctx *cli.Context) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if ctx.IsSet(rpcFlag.Name) {
		cfg.RPC = ctx.String(rpcFlag.Name)
	}
	if ctx.IsSet(walletFlag.Name) {
		cfg.Wallet = ctx.String(walletFlag.Name)
	}
	if ctx.IsSet(contractFlag.Name) {
		cfg.Contract = ctx.String(contractFlag.Name)
	}
	if ctx.IsSet(listenFlag.Name) {
		cfg.Listen = ctx.String(listenFlag.Name)
	}
	if ctx.IsSet(followFlag.Name) {
		cfg.FollowInterval = ctx.Duration(followFlag.Name)
	}
	if ctx.IsSet(verbosityFlag.Name) {
		cfg.Verbosity = ctx.Int(verbosityFlag.Name)
	}
	return cfg, nil
}

func setupLogging(verbosity int) {
	handler := log.NewTerminalHandlerWithLevel(os.Stderr, log.FromLegacyLevel(verbosity), true)
	log.SetDefault(log.NewLogger(handler))
}

// session bundles the wired components of one client process.
type session struct {
	cfg     config.Config
	rpc     *rpc.Client
	wallet  *wallet.Adapter
	client  *game.Client
	machine *game.Machine
	arena   *game.Arena
}

func newSession(ctx *cli.Context) (*session, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.Verbosity)

	address, err := cfg.ContractAddress()
	if err != nil {
		return nil, fmt.Errorf("%v (use --%s)", err, contractFlag.Name)
	}
	dialCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rc, err := rpc.DialContext(dialCtx, cfg.RPC)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %v", cfg.RPC, err)
	}
	var adapter *wallet.Adapter
	switch endpoint := cfg.WalletEndpoint(); endpoint {
	case cfg.RPC:
		adapter = wallet.NewAdapter(rc)
	default:
		if adapter, err = wallet.Dial(dialCtx, endpoint); err != nil {
			rc.Close()
			return nil, err
		}
	}
	binder := game.NewEthereumBinder(ethclient.NewClient(rc), address, adapter.TransactOpts)
	client := game.NewClient(binder, cfg.ConfirmTimeout)
	machine := game.NewMachine(adapter, client, cfg.CheckTimeout)

	log.Info("Game client configured",
		"rpc", cfg.RPC,
		"wallet", adapter.Available(),
		"contract", address,
	)
	return &session{
		cfg:     cfg,
		rpc:     rc,
		wallet:  adapter,
		client:  client,
		machine: machine,
		arena:   game.NewArena(machine, client),
	}, nil
}

func (s *session) close() {
	s.machine.Close()
	s.wallet.Close()
	s.rpc.Close()
}

// start runs the initial wallet check and waits for the ownership check.
func (s *session) start(ctx context.Context) game.Session {
	s.machine.Start(ctx)
	s.machine.Wait()
	return s.machine.Snapshot()
}

func serve(ctx *cli.Context) error {
	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Render every session change to the log.
	changes := make(chan game.Session, 16)
	sub := s.machine.Subscribe(changes)
	defer sub.Unsubscribe()
	go func() {
		for {
			select {
			case sess := <-changes:
				log.Info("Session updated", "phase", game.SelectPhase(sess), "state", sess.State, "account", sess.Account, "notice", sess.Notice)
			case <-sub.Err():
				return
			}
		}
	}()

	s.machine.Start(sigCtx)

	if s.cfg.FollowInterval > 0 {
		log.Info("Following wallet account switches", "interval", s.cfg.FollowInterval)
		go s.wallet.Watch(sigCtx, s.cfg.FollowInterval)
		go s.machine.FollowAccounts(sigCtx, s.wallet)
	}

	server := rpc.NewServer()
	defer server.Stop()
	if err := server.RegisterName("game", game.NewAPI(s.machine, s.arena)); err != nil {
		return err
	}
	httpServer := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           newHandler(server, s.cfg.Origins),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- httpServer.ListenAndServe() }()
	log.Info("Game session API ready", "listen", s.cfg.Listen)

	select {
	case err := <-errc:
		return err
	case <-sigCtx.Done():
	}
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newHandler serves JSON-RPC over HTTP and upgrades WebSocket requests.
func newHandler(server *rpc.Server, origins []string) http.Handler {
	ws := server.WebsocketHandler(origins)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			ws.ServeHTTP(w, r)
			return
		}
		server.ServeHTTP(w, r)
	})
}

func statusCmd(ctx *cli.Context) error {
	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	return printJSON(game.NewSessionView(s.start(context.Background())))
}

func connectCmd(ctx *cli.Context) error {
	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	if sess := s.start(context.Background()); sess.State == game.StateDisconnected {
		if err := s.machine.ConnectWallet(context.Background()); err != nil {
			return err
		}
		s.machine.Wait()
	}
	return printJSON(game.NewSessionView(s.machine.Snapshot()))
}

func mintCmd(ctx *cli.Context) error {
	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	s.start(context.Background())
	char, err := s.arena.Mint(context.Background(), ctx.Uint64(indexFlag.Name))
	if err != nil {
		return err
	}
	return printJSON(char)
}

func attackCmd(ctx *cli.Context) error {
	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	s.start(context.Background())
	outcome, err := s.arena.Attack(context.Background())
	if err != nil {
		return err
	}
	return printJSON(outcome)
}

func infoCmd(ctx *cli.Context) error {
	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	// Roster and boss are plain views; any caller address will do.
	h, err := s.client.Bind(context.Background(), common.Address{})
	if err != nil {
		return err
	}
	roster, err := s.client.Roster(context.Background(), h)
	if err != nil {
		return err
	}
	boss, err := s.client.Boss(context.Background(), h)
	if err != nil {
		return err
	}
	return printJSON(map[string]interface{}{
		"characters": roster,
		"boss":       boss,
	})
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
