// Command tracker is the command line interface for ingesting and
// exploring canonical transactions.
//
// Usage:
//
//	tracker track-eth <address>       ingest an Ethereum address history
//	tracker track-tx <address> <hash> ingest a single transaction from the node
//	tracker track-coinbase            ingest the configured Coinbase accounts
//	tracker list [flags]              list stored transactions
//	tracker show <id>                 show one transaction
//	tracker chain <id>                show the lifecycle chain of a transaction
//	tracker link <parent-id> <child-id>  link two transactions
//	tracker balance <address>         show the live ETH balance of an address
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/flowledger/crypto-tracker/internal/adapter"
	"github.com/flowledger/crypto-tracker/internal/config"
	"github.com/flowledger/crypto-tracker/internal/domain"
	"github.com/flowledger/crypto-tracker/internal/logger"
	"github.com/flowledger/crypto-tracker/internal/providers/coinbase"
	ethnode "github.com/flowledger/crypto-tracker/internal/providers/ethereum"
	"github.com/flowledger/crypto-tracker/internal/providers/etherscan"
	"github.com/flowledger/crypto-tracker/internal/registry"
	"github.com/flowledger/crypto-tracker/internal/store"
	"github.com/flowledger/crypto-tracker/internal/tracker"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadTrackerConfig(*configFile, *envPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "tracker-cli",
		},
	})
	if err != nil {
		fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Flush(2 * time.Second)

	ctx := context.Background()

	command := args[0]
	args = args[1:]

	// balance talks to the node only, no database needed
	if command == "balance" {
		if err := runBalance(ctx, cfg, args); err != nil {
			fatalf("%v", err)
		}
		return
	}

	svc, err := buildTracker(cfg)
	if err != nil {
		fatalf("%v", err)
	}

	switch command {
	case "track-eth":
		err = runTrackEth(ctx, svc, args)
	case "track-tx":
		err = runTrackTx(ctx, svc, args)
	case "track-coinbase":
		err = runTrackCoinbase(ctx, svc)
	case "list":
		err = runList(ctx, svc, args)
	case "show":
		err = runShow(ctx, svc, args)
	case "chain":
		err = runChain(ctx, svc, args)
	case "link":
		err = runLink(ctx, svc, args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fatalf("%v", err)
	}
}

// buildTracker wires the database, connectors and registry into a tracker
func buildTracker(cfg *config.TrackerConfig) (*tracker.Tracker, error) {
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		return nil, fmt.Errorf("failed to configure connection pool: %w", err)
	}

	if err := store.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	dataStore := store.NewPGStore(db)
	httpClient := adapter.NewHTTPClient(30 * time.Second)
	jsonAdapter := adapter.NewJSON()
	clock := adapter.NewClock()

	dexRegistry, err := registry.LoadDEXRegistry(cfg.DEXRegistryPath)
	if err != nil {
		logger.Warn("Failed to load DEX registry, using built-in defaults",
			zap.Error(err),
			zap.String("path", cfg.DEXRegistryPath),
		)
		dexRegistry = registry.NewDefaultDEXRegistry()
	}

	etherscanClient := etherscan.NewClient(httpClient, jsonAdapter, etherscan.Config{
		APIURL:            cfg.Etherscan.APIURL,
		APIKey:            cfg.Etherscan.APIKey,
		RequestsPerSecond: cfg.Etherscan.RequestsPerSecond,
		StartBlock:        cfg.Etherscan.StartBlock,
		EndBlock:          cfg.Etherscan.EndBlock,
	})
	coinbaseClient := coinbase.NewClient(httpClient, jsonAdapter, clock, coinbase.Config{
		APIURL:    cfg.Coinbase.APIURL,
		APIKey:    cfg.Coinbase.APIKey,
		APISecret: cfg.Coinbase.APISecret,
	})
	node := dialNode(cfg.Ethereum.RPCURL, jsonAdapter)

	return tracker.New(dataStore, etherscanClient, coinbaseClient, node, dexRegistry), nil
}

// dialNode connects to the Ethereum node, returning nil when the RPC URL
// is unset or unreachable so that node-independent commands still work
func dialNode(rpcURL string, jsonAdapter adapter.JSON) ethnode.Client {
	if rpcURL == "" {
		return nil
	}
	ethClient, err := adapter.NewEthClientDialer().Dial(context.Background(), rpcURL)
	if err != nil {
		logger.Warn("Failed to connect to ethereum node",
			zap.Error(err),
			zap.String("rpc_url", rpcURL),
		)
		return nil
	}
	return ethnode.NewClient(ethClient, jsonAdapter)
}

func runTrackEth(ctx context.Context, svc *tracker.Tracker, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: tracker track-eth <address>")
	}

	result, err := svc.TrackAddress(ctx, args[0])
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func runTrackTx(ctx context.Context, svc *tracker.Tracker, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: tracker track-tx <address> <hash>")
	}

	result, err := svc.TrackTransaction(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func runTrackCoinbase(ctx context.Context, svc *tracker.Tracker) error {
	result, err := svc.TrackCoinbase(ctx)
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func runList(ctx context.Context, svc *tracker.Tracker, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	currency := fs.String("currency", "", "Filter by currency code")
	source := fs.String("source", "", "Filter by source (blockchain, coinbase, dex)")
	txType := fs.String("type", "", "Filter by transaction type")
	since := fs.String("since", "", "Only transactions at or after this RFC 3339 timestamp")
	limit := fs.Int("limit", 0, "Maximum number of rows")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := store.ListFilter{
		Currency: *currency,
		Source:   domain.Source(*source),
		Type:     domain.TxType(*txType),
		Limit:    *limit,
	}
	if *since != "" {
		ts, err := time.Parse(time.RFC3339, *since)
		if err != nil {
			return fmt.Errorf("invalid -since timestamp: %w", err)
		}
		filter.Since = &ts
	}

	transactions, err := svc.List(ctx, filter)
	if err != nil {
		return err
	}
	printTransactions(transactions)
	return nil
}

func runShow(ctx context.Context, svc *tracker.Tracker, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: tracker show <id>")
	}

	tx, err := svc.Get(ctx, domain.TxID(args[0]))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", tx.ID)
	fmt.Fprintf(w, "Source:\t%s\n", tx.Source)
	fmt.Fprintf(w, "Type:\t%s\n", tx.Type)
	fmt.Fprintf(w, "Status:\t%s\n", tx.Status)
	fmt.Fprintf(w, "Timestamp:\t%s\n", tx.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(w, "Amount:\t%s %s\n", tx.Amount, tx.Currency)
	fmt.Fprintf(w, "Fee:\t%s %s\n", tx.Fee, tx.FeeCurrency)
	if tx.ParentID != nil {
		fmt.Fprintf(w, "Parent:\t%s\n", *tx.ParentID)
	}
	return w.Flush()
}

func runChain(ctx context.Context, svc *tracker.Tracker, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: tracker chain <id>")
	}

	chain, err := svc.Chain(ctx, domain.TxID(args[0]))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tID\tTYPE\tSOURCE\tAMOUNT\tCURRENCY\tSTATUS\tTIMESTAMP")
	for i, tx := range chain {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i+1, tx.ID, tx.Type, tx.Source, tx.Amount, tx.Currency, tx.Status,
			tx.Timestamp.Format(time.RFC3339))
	}
	return w.Flush()
}

func runLink(ctx context.Context, svc *tracker.Tracker, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: tracker link <parent-id> <child-id>")
	}

	parentID := domain.TxID(args[0])
	childID := domain.TxID(args[1])
	if err := svc.Link(ctx, parentID, childID); err != nil {
		return err
	}
	fmt.Printf("Linked %s -> %s\n", parentID, childID)
	return nil
}

func runBalance(ctx context.Context, cfg *config.TrackerConfig, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: tracker balance <address>")
	}

	node := dialNode(cfg.Ethereum.RPCURL, adapter.NewJSON())
	if node == nil {
		return fmt.Errorf("ethereum node connector not configured")
	}
	defer node.Close()

	balance, err := node.Balance(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s ETH\n", balance)
	return nil
}

func printResult(result *tracker.Result) {
	fmt.Printf("Inserted:   %d\n", result.Inserted)
	fmt.Printf("Duplicates: %d\n", result.Duplicates)
	if len(result.Errors) > 0 {
		fmt.Printf("Errors:     %d\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("  %s: %s\n", e.Ref, e.Reason)
		}
	}
}

func printTransactions(transactions []domain.Transaction) {
	if len(transactions) == 0 {
		fmt.Println("No transactions found")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tSOURCE\tAMOUNT\tCURRENCY\tSTATUS\tTIMESTAMP")
	for _, tx := range transactions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.ID, tx.Type, tx.Source, tx.Amount, tx.Currency, tx.Status,
			tx.Timestamp.Format(time.RFC3339))
	}
	w.Flush()
	fmt.Printf("\n%d transaction(s)\n", len(transactions))
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: tracker [flags] <command> [args]

Commands:
  track-eth <address>            Ingest the transaction history of an Ethereum address
  track-tx <address> <hash>      Ingest a single transaction straight from the node
  track-coinbase                 Ingest the configured Coinbase accounts
  list [flags]                   List stored transactions
  show <id>                      Show one transaction
  chain <id>                     Show the lifecycle chain of a transaction
  link <parent-id> <child-id>    Link a child transaction to its parent
  balance <address>              Show the live ETH balance of an address

Flags:
  -config <path>  Path to configuration file
  -env <path>     Path to environment files`)
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	logger.Flush(2 * time.Second)
	os.Exit(1)
}
