// Command history prints a room's persisted messages as a table, fetched
// from a running relay over its REST API.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

type message struct {
	ID     int64  `json:"id"`
	Room   string `json:"room"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
	Ts     int64  `json:"ts"`
}

func main() {
	addr := flag.String("addr", "http://localhost:3000", "Relay base URL")
	room := flag.String("room", "lobby", "Room to read")
	limit := flag.Int("limit", 0, "Max messages (0 = server default)")
	colours := flag.Bool("colours", true, "Colourize output")
	flag.Parse()

	messages, err := fetchHistory(*addr, *room, *limit)
	if err != nil {
		log.Fatal("Error while fetching history: ", err)
	}

	header := fmt.Sprintf("  ====== %s (%d messages) ======", *room, len(messages))
	if *colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	fmt.Println(header)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Time", "Sender", "Text"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, msg := range messages {
		sent := time.UnixMilli(msg.Ts).Format(time.RFC822)
		table.Append([]string{
			strconv.FormatInt(msg.ID, 10),
			sent,
			msg.Sender,
			msg.Text,
		})
	}
	table.Render()
}

func fetchHistory(addr, room string, limit int) ([]message, error) {
	endpoint := fmt.Sprintf("%s/api/rooms/%s/messages", addr, url.PathEscape(room))
	if limit > 0 {
		endpoint += "?limit=" + strconv.Itoa(limit)
	}

	resp, err := http.Get(endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("relay answered %s", resp.Status)
	}

	var messages []message
	if err := json.NewDecoder(resp.Body).Decode(&messages); err != nil {
		return nil, err
	}
	return messages, nil
}
