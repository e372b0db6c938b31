package main

import (
	"log"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"
)

type Trade struct {
	ID      int64     `parquet:"id"`
	Account string    `parquet:"account"`
	At      time.Time `parquet:"at,timestamp(millisecond)"`
	Amount  float64   `parquet:"amount"`
	Qty     *int64    `parquet:"qty,optional"`
}

func main() {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	qty := func(n int64) *int64 { return &n }

	trades := []Trade{
		{ID: 1, Account: "acme", At: base, Amount: 120.5, Qty: qty(10)},
		{ID: 2, Account: "globex", At: base.Add(5 * time.Minute), Amount: 80, Qty: qty(4)},
		{ID: 3, Account: "acme", At: base.Add(20 * time.Minute), Amount: -35.25, Qty: nil},
		{ID: 4, Account: "acme", At: base.Add(95 * time.Minute), Amount: 210, Qty: qty(15)},
		{ID: 5, Account: "globex", At: base.Add(2 * time.Hour), Amount: 99.9, Qty: qty(7)},
		{ID: 6, Account: "initech", At: base.Add(3 * time.Hour), Amount: 15, Qty: qty(1)},
		{ID: 7, Account: "acme", At: base.Add(3 * time.Hour), Amount: 64, Qty: qty(6)},
	}

	file, err := os.Create("trades.parquet")
	if err != nil {
		log.Fatal(err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[Trade](file)
	if _, err := writer.Write(trades); err != nil {
		log.Fatal(err)
	}
	if err := writer.Close(); err != nil {
		log.Fatal(err)
	}

	log.Printf("Generated trades.parquet with %d trades", len(trades))
}
