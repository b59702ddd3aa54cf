// Command couponfile writes a gzipped sample coupon import file in the format
// read by the API's COUPON_IMPORT_FILE start-up import.
package main

import (
	"compress/gzip"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

type sampleCoupon struct {
	code     string
	kind     string
	value    string
	minOrder string
	minItems int
	maxUses  string
	validFor time.Duration // zero means no end date
}

var samples = []sampleCoupon{
	{"WELCOME10", "percentage", "10", "299", 0, "", 0},
	{"FLAT50", "fixed", "50", "499", 0, "1000", 90 * 24 * time.Hour},
	{"BULK15", "percentage", "15", "0", 10, "", 30 * 24 * time.Hour},
	{"MEGA100", "fixed", "100", "999", 5, "250", 14 * 24 * time.Hour},
	{"FESTIVE20", "percentage", "20", "799", 0, "500", 7 * 24 * time.Hour},
}

func main() {
	out := flag.String("out", "data/coupons/sample.csv.gz", "output file")
	flag.Parse()

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}
	if err := writeCouponFile(*out, time.Now().UTC()); err != nil {
		log.Fatalf("Failed to create %s: %v", *out, err)
	}

	fmt.Printf("Created %s with %d coupons\n", *out, len(samples))
	fmt.Println("Import it with COUPON_IMPORT_FILE=" + *out)
}

func writeCouponFile(filePath string, now time.Time) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)

	fmt.Fprintln(gzipWriter, "# CODE,type,value,min_order_value,min_items,max_uses,valid_until")
	for _, c := range samples {
		until := ""
		if c.validFor > 0 {
			until = now.Add(c.validFor).Format("2006-01-02")
		}
		if _, err := fmt.Fprintf(gzipWriter, "%s,%s,%s,%s,%d,%s,%s\n",
			c.code, c.kind, c.value, c.minOrder, c.minItems, c.maxUses, until); err != nil {
			return fmt.Errorf("failed to write coupon: %w", err)
		}
	}

	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return nil
}
