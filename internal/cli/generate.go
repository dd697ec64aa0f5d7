package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artm44/TestTask-SKRIN/internal/datagen"
)

var (
	generateOrders int
	generateSeed   uint64
	generateOut    string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a sample XML orders document",
	Long: `Generate writes a randomized XML orders document in the format the
load command consumes. Generated documents reuse customers and
products across orders so deduplication has something to do.

Example:
  orderimport generate --orders 50 -o orders.xml
  orderimport generate --seed 42`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().IntVar(&generateOrders, "orders", 20,
		"number of orders to generate")
	generateCmd.Flags().Uint64Var(&generateSeed, "seed", 0,
		"random seed (0 for a random one)")
	generateCmd.Flags().StringVarP(&generateOut, "out", "o", "orders.xml",
		"output file path")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if generateOrders <= 0 {
		return fmt.Errorf("--orders must be positive, got %d", generateOrders)
	}

	faker := datagen.NewFaker()
	if generateSeed != 0 {
		faker = datagen.NewFakerWithSeed(generateSeed)
	}

	generated := faker.Orders(generateOrders)

	f, err := os.Create(generateOut)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", generateOut, err)
	}
	defer f.Close()

	if err := datagen.WriteXML(f, generated); err != nil {
		return fmt.Errorf("failed to write %s: %w", generateOut, err)
	}

	cmd.Printf("Wrote %d orders to %s\n", len(generated), generateOut)
	return nil
}
