// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/foreclosurewatch/fwdata/data"
	"github.com/foreclosurewatch/fwdata/library"
)

// exportRow is the spreadsheet view of an active listing. Column headers
// match what acquisition teams expect from their working sheets.
type exportRow struct {
	Address     string `csv:"Address"`
	PhoneNumber string `csv:"Phone Number"`
	HomeOwner   string `csv:"Home Owner"`
	Status      string `csv:"Status"`
	Stage       string `csv:"Stage"`
	AuctionDate string `csv:"Auction Date"`
	OpeningBid  string `csv:"Opening Bid"`
	EstValue    string `csv:"Est. Value"`
	SourceURL   string `csv:"Source URL"`
	Occupancy   string `csv:"Occupancy"`
	Notes       string `csv:"Notes / Flags"`
}

var exportOutFile string

func exportRowFor(listing *data.ActiveListing) *exportRow {
	property := listing.Property
	event := listing.Event

	row := &exportRow{
		Address:     property.Address.Full,
		PhoneNumber: event.OwnerPhone,
		HomeOwner:   event.Defendant,
		Status:      event.Status,
		Stage:       string(event.Stage),
		SourceURL:   property.SourceURL,
		Occupancy:   property.Occupancy,
	}

	if event.SaleDate != nil {
		row.AuctionDate = event.SaleDate.Format("2006-01-02")
	}
	if event.OpeningBid != nil {
		row.OpeningBid = fmt.Sprintf("%.0f", *event.OpeningBid)
	}
	if property.EstimatedValue != nil {
		row.EstValue = fmt.Sprintf("%.0f", *property.EstimatedValue)
	}

	flags := make([]string, 0, 2)
	if property.Notes != "" {
		flags = append(flags, property.Notes)
	}
	if event.PendingVerification {
		flags = append(flags, "pending verification")
	}
	row.Notes = strings.Join(flags, "; ")

	return row
}

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export active listings as CSV",
	Long: `The export sub-command writes every active listing to CSV, soonest
sale date first, in the column layout acquisition teams work from. Output
goes to stdout unless --out is given.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLibrary, err := library.NewFromDB(ctx, viper.GetString("db.url"))
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to library")
		}
		defer myLibrary.Close()

		listings, err := myLibrary.ActiveListings(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load active listings")
		}

		rows := make([]*exportRow, 0, len(listings))
		for _, listing := range listings {
			rows = append(rows, exportRowFor(listing))
		}

		out := os.Stdout
		if exportOutFile != "" {
			out, err = os.Create(exportOutFile)
			if err != nil {
				log.Fatal().Err(err).Str("FileName", exportOutFile).Msg("could not create output file")
			}
			defer out.Close()
		}

		if err := gocsv.Marshal(&rows, out); err != nil {
			log.Fatal().Err(err).Msg("could not write CSV")
		}

		if exportOutFile != "" {
			log.Info().Int("NumListings", len(rows)).Str("FileName", exportOutFile).Msg("export complete")
		}
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportOutFile, "out", "", "write CSV to file instead of stdout")
}
