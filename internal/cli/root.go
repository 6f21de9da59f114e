package cli

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/verdantlab/ranger/internal/dbx"
	"github.com/verdantlab/ranger/internal/journey"
	"github.com/verdantlab/ranger/internal/models"
	"github.com/verdantlab/ranger/internal/repositories/kv"
	"github.com/verdantlab/ranger/internal/repositories/queue"
)

func allKinds() []models.QueueKind {
	return []models.QueueKind{models.KindPlantNew, models.KindPlantAssigned, models.KindUpdate}
}

// Root runs the command loop until exit or EOF.
func (a *App) Root(ctx context.Context) {
	fmt.Println("ranger client, type 'help' for commands")

	for {
		line, err := GetSimpleText(a.reader, fmt.Sprintf("(%s)", a.Mode), os.Stdout)
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "plant":
			a.cmdPlant(ctx, fields[1:])
		case "assign":
			a.cmdAssign(ctx, fields[1:])
		case "update":
			a.cmdUpdate(ctx, fields[1:])
		case "queue":
			a.cmdQueue(ctx)
		case "sendall":
			a.cmdSendAll(ctx)
		case "send":
			a.cmdSend(ctx, fields[1:])
		case "minimize":
			a.orch.Minimize()
			fmt.Println("Progress minimized; submissions continue in the background")
		case "restore":
			a.orch.Restore()
		case "relay":
			a.cmdRelay(fields[1:])
		case "withdraw":
			a.cmdWithdraw(ctx, fields[1:])
		case "help":
			printHelp()
		case "exit", "quit":
			return
		default:
			fmt.Printf("unknown command %q, type 'help'\n", fields[0])
		}
	}
}

func printHelp() {
	fmt.Print(`commands:
  plant <photo> <lat> <lng> [count]     queue a new tree (count > 1 = nursery batch)
  assign <treeId> <photo> <lat> <lng>   plant a pre-assigned tree
  update <treeId> <photo> [lat lng]     update an existing tree's photo
  queue                                 show pending submissions
  sendall                               submit all queued items
  send <offlineId>                      submit one queued item
  minimize | restore                    hide/show flush progress
  relay on|off                          toggle gasless submission
  withdraw <amount>                     withdraw planter funds
  exit
`)
}

func (a *App) cmdPlant(ctx context.Context, args []string) {
	if len(args) < 3 {
		fmt.Println("usage: plant <photo> <lat> <lng> [count]")
		return
	}
	loc, err := parseCoordinate(args[1], args[2])
	if err != nil {
		fmt.Println(err)
		return
	}

	single := true
	count := 0
	if len(args) > 3 {
		count, err = strconv.Atoi(args[3])
		if err != nil || count < 1 {
			fmt.Println("count must be a positive integer")
			return
		}
		single = count == 1
	}

	// an empty plant target also clears any stale update target
	noTarget := ""
	patch := journey.Patch{
		Photo:         &args[0],
		Location:      loc,
		PhotoLocation: loc,
		IsSingle:      &single,
		TreeIDToPlant: &noTarget,
	}
	if !single {
		patch.NurseryCount = &count
	}
	if _, err := a.tracker.SetJourney(ctx, patch); err != nil {
		fmt.Println(err)
		return
	}
	a.finalizeJourney(ctx)
}

func (a *App) cmdAssign(ctx context.Context, args []string) {
	if len(args) < 4 {
		fmt.Println("usage: assign <treeId> <photo> <lat> <lng>")
		return
	}
	loc, err := parseCoordinate(args[2], args[3])
	if err != nil {
		fmt.Println(err)
		return
	}

	single := true
	if _, err := a.tracker.SetJourney(ctx, journey.Patch{
		TreeIDToPlant: &args[0],
		Photo:         &args[1],
		Location:      loc,
		PhotoLocation: loc,
		IsSingle:      &single,
	}); err != nil {
		fmt.Println(err)
		return
	}
	a.finalizeJourney(ctx)
}

func (a *App) cmdUpdate(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Println("usage: update <treeId> <photo> [lat lng]")
		return
	}
	patch := journey.Patch{
		TreeIDToUpdate: &args[0],
		Photo:          &args[1],
	}
	if len(args) >= 4 {
		loc, err := parseCoordinate(args[2], args[3])
		if err != nil {
			fmt.Println(err)
			return
		}
		patch.Location = loc
		patch.PhotoLocation = loc
	}
	if _, err := a.tracker.SetJourney(ctx, patch); err != nil {
		fmt.Println(err)
		return
	}
	a.finalizeJourney(ctx)
}

// journeyKind derives the submission kind and target from the journey; the
// tracker guarantees at most one target is set.
func journeyKind(j models.Journey) (models.QueueKind, string) {
	switch {
	case j.IsUpdate():
		return models.KindUpdate, j.TreeIDToUpdate
	case j.IsAssigned():
		return models.KindPlantAssigned, j.TreeIDToPlant
	default:
		return models.KindPlantNew, ""
	}
}

// finalizeJourney turns the tracked journey into a durable queue item,
// clears the journey, and kicks off a flush when online. Offline the item
// simply waits for connectivity.
func (a *App) finalizeJourney(ctx context.Context) {
	j := a.tracker.GetJourney()
	if j.Photo == "" {
		fmt.Println("no photo captured")
		return
	}
	kind, targetTreeID := journeyKind(j)

	payload := models.QueuePayload{
		Photo:         j.Photo,
		PhotoLocation: j.PhotoLocation,
		Location:      j.Location,
		IsSingle:      j.IsSingle,
		NurseryCount:  j.NurseryCount,
		Birthday:      time.Now().Unix(),
	}

	offlineID, err := enqueueAndClear(ctx, a.db, a.tracker, kind, payload, targetTreeID)
	if err != nil {
		fmt.Println(err)
		return
	}

	if a.Mode == ModeOnline {
		fmt.Printf("Queued %s, submitting...\n", offlineID)
		a.flushInBackground(ctx)
	} else {
		fmt.Printf("Offline: queued %s for later submission\n", offlineID)
	}
}

// enqueueAndClear inserts the queue item and removes the journey snapshot in
// one transaction, so a crash between the two cannot leave a finalized
// journey without its queue item or the other way around.
func enqueueAndClear(ctx context.Context, db *sql.DB, tracker *journey.Tracker, kind models.QueueKind, payload models.QueuePayload, targetTreeID string) (string, error) {
	var offlineID string
	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		id, err := queue.NewSQLiteRepository(tx).Enqueue(ctx, kind, payload, targetTreeID)
		if err != nil {
			return err
		}
		offlineID = id
		return tracker.ClearJourneyIn(ctx, kv.NewSQLiteRepository(tx))
	})
	if err != nil {
		return "", err
	}
	return offlineID, nil
}

func (a *App) cmdQueue(ctx context.Context) {
	total := 0
	for _, kind := range allKinds() {
		items, err := a.queue.ListPending(ctx, kind)
		if err != nil {
			fmt.Println(err)
			return
		}
		for _, item := range items {
			line := fmt.Sprintf("%s  %-14s", item.OfflineID, item.Kind)
			if item.TargetTreeID != "" {
				line += "  tree " + item.TargetTreeID
			}
			if item.LastError != "" {
				line += "  last error: " + item.LastError
			}
			fmt.Println(line)
		}
		total += len(items)
	}
	fmt.Printf("%d pending\n", total)
}

func (a *App) cmdSendAll(ctx context.Context) {
	for _, kind := range allKinds() {
		if err := a.orch.FlushAll(ctx, kind); err != nil {
			fmt.Println(err)
			return
		}
	}
}

func (a *App) cmdSend(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Println("usage: send <offlineId>")
		return
	}
	if err := a.orch.FlushOne(ctx, args[0]); err != nil {
		fmt.Println(err)
	}
}

func (a *App) cmdRelay(args []string) {
	if len(args) < 1 || (args[0] != "on" && args[0] != "off") {
		fmt.Println("usage: relay on|off")
		return
	}
	on := args[0] == "on"
	if on && !a.config.RelayConfigured() {
		fmt.Println("relay is not configured")
		return
	}
	a.orch.SetUseRelay(on)
}

func (a *App) cmdWithdraw(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Println("usage: withdraw <amount>")
		return
	}
	amount, ok := new(big.Int).SetString(args[0], 10)
	if !ok || amount.Sign() <= 0 {
		fmt.Println("amount must be a positive integer")
		return
	}

	receipt, err := a.orch.SubmitWithdraw(ctx, amount)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("Withdrawal confirmed, tx %s\n", receipt.TxHash)
}

func parseCoordinate(latStr, lngStr string) (*models.Geocoordinate, error) {
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q", latStr)
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q", lngStr)
	}
	return &models.Geocoordinate{Latitude: lat, Longitude: lng}, nil
}
