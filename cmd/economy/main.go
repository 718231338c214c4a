// Command economy inspects the economy store from the command line: it
// prints a guild's leaderboard and a member's reward cooldowns.
package main

import (
	"flag"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/rbrabson/economy/pkg/document"
	"github.com/rbrabson/economy/pkg/economy"
	"github.com/rbrabson/economy/pkg/format"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func main() {
	godotenv.Load()

	guildID := flag.String("guild", "", "guild to inspect")
	memberID := flag.String("member", "", "member whose cooldowns to show")
	bank := flag.Bool("bank", false, "rank by bank balance instead of wallet")
	limit := flag.Int("limit", 10, "number of leaderboard entries to print")
	flag.Parse()

	if *guildID == "" {
		log.Fatal("A guild ID is required; pass -guild")
	}

	store, err := document.NewStore()
	if err != nil {
		log.Fatal("Unable to open the economy store, error:", err)
	}
	defer store.Close()

	eco := economy.New(store)
	p := message.NewPrinter(language.English)

	manager := eco.Balance
	title := "Wallet"
	if *bank {
		manager = eco.Bank
		title = "Bank"
	}

	entries, err := manager.Leaderboard(*guildID)
	if err != nil {
		log.Fatal("Unable to read the leaderboard, error:", err)
	}
	if *limit < len(entries) {
		entries = entries[:*limit]
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Rank", "Member", title})
	for _, entry := range entries {
		table.Append([]string{
			strconv.Itoa(entry.Index),
			entry.MemberID,
			p.Sprintf("%d", entry.Amount),
		})
	}
	table.Render()

	if *memberID == "" {
		return
	}

	for _, rewardType := range []economy.RewardType{economy.Daily, economy.Work, economy.Weekly, economy.Monthly, economy.Hourly} {
		remaining, err := eco.Rewards.GetCooldown(rewardType, *memberID, *guildID)
		if err != nil {
			log.Fatal("Unable to read the cooldowns, error:", err)
		}
		if remaining == 0 {
			p.Printf("%s: ready\n", rewardType)
		} else {
			p.Printf("%s: ready in %s\n", rewardType, format.Duration(remaining))
		}
	}
}
