package shop

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/dShop/cmd/util"
	"github.com/ValentinKolb/dShop/lib/model"
	ishop "github.com/ValentinKolb/dShop/lib/shop"
	"github.com/ValentinKolb/dShop/rpc/common"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for dShop servers",
		Long:    "Runs benchmarks against a shard. The benchmarks create products prefixed with '__perf' and a perf user, products are deleted afterwards, orders of the perf user are kept.",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfNamePrefix    = "__perf"
	perfNumThreads    = 10
	perfProductSpread = 100
	perfSkip          = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. search,checkout)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "products"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different products to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfProductSpread = max(1, viper.GetInt("products"))
	perfNumThreads = viper.GetInt("threads")
	perfSkip = util.SplitList(viper.GetString("skip"))

	return nil
}

// benchmark is a single perf test. op runs one operation, i counts the operations of the calling goroutine.
type benchmark struct {
	name string
	op   func(f *perfFixture, i int) error
}

var benchmarks = []benchmark{
	{"get-products", func(_ *perfFixture, _ int) error {
		_, err := rpcShop.GetProducts()
		return err
	}},
	{"get-product", func(f *perfFixture, i int) error {
		_, err := rpcShop.GetProduct(f.product(i))
		return err
	}},
	{"get-product-missing", func(_ *perfFixture, _ int) error {
		_, err := rpcShop.GetProduct(math.MaxUint64) // not found expected
		if ishop.CodeOf(err) == ishop.RetCNotFound {
			return nil
		}
		return err
	}},
	{"search", func(_ *perfFixture, i int) error {
		_, err := rpcShop.SearchProducts(fmt.Sprintf("%s-%d", perfNamePrefix, i%perfProductSpread))
		return err
	}},
	{"update-product", func(f *perfFixture, i int) error {
		stock := int64(1_000_000 + i)
		_, err := rpcShop.UpdateProduct(f.product(i), model.ProductPatch{Stock: &stock})
		return err
	}},
	{"add-to-cart", func(f *perfFixture, i int) error {
		_, err := rpcShop.AddToCart(model.InsertCartItem{UserID: f.userID, ProductID: f.product(i), Quantity: 1})
		return err
	}},
	{"get-cart", func(f *perfFixture, _ int) error {
		_, err := rpcShop.GetCartItems(f.userID)
		return err
	}},
	{"checkout", func(f *perfFixture, i int) error {
		if _, err := rpcShop.AddToCart(model.InsertCartItem{UserID: f.userID, ProductID: f.product(i), Quantity: 1}); err != nil {
			return err
		}
		_, err := rpcShop.Checkout(f.userID)
		if ishop.CodeOf(err) == ishop.RetCInvalidOperation {
			// another goroutine checked out the cart first
			return nil
		}
		return err
	}},
	{"mixed", func(f *perfFixture, i int) error {
		var err error
		switch i % 4 {
		case 0:
			_, err = rpcShop.GetProducts()
		case 1:
			_, err = rpcShop.GetProduct(f.product(i))
		case 2:
			_, err = rpcShop.AddToCart(model.InsertCartItem{UserID: f.userID, ProductID: f.product(i), Quantity: 1})
		case 3:
			_, err = rpcShop.GetCartItems(f.userID)
		}
		return err
	}},
}

func runPerf(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for dShop servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	fixture, err := newPerfFixture()
	if err != nil {
		return err
	}
	defer fixture.cleanup()

	fmt.Println("starting tests...")

	// Create results map
	results := make(map[string]testing.BenchmarkResult)

	for _, bm := range benchmarks {
		result := testing.Benchmark(func(b *testing.B) {
			if shouldSkip(bm.name) {
				return
			}

			b.Cleanup(func() {
				if err := rpcShop.ClearCart(fixture.userID); err != nil {
					log.Printf("(%s) - error clearing cart: %v\n", bm.name, err)
				}
			})

			b.SetParallelism(perfNumThreads)

			b.ResetTimer()

			b.RunParallel(func(pb *testing.PB) {
				counter := 0
				for pb.Next() {
					if err := bm.op(fixture, counter); err != nil {
						log.Printf("(%s) - error: %v\n", bm.name, err)
					}
					counter++
				}
			})
		})

		results[bm.name] = result
		printResult(bm.name, result)
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, util.GetClientConfig()); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Fixture
// --------------------------------------------------------------------------

// perfFixture holds the products and the user the benchmarks work with
type perfFixture struct {
	userID   uint64
	products []uint64
}

func newPerfFixture() (*perfFixture, error) {
	user, err := rpcShop.CreateUser(model.InsertUser{
		Username: fmt.Sprintf("%s-%s", perfNamePrefix, uuid.NewString()),
		Password: "-",
		Role:     model.RoleUser,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create perf user: %w", err)
	}

	f := &perfFixture{userID: user.ID}
	for i := 0; i < perfProductSpread; i++ {
		product, err := rpcShop.CreateProduct(model.InsertProduct{
			Name:        fmt.Sprintf("%s-%d", perfNamePrefix, i),
			Description: "product created by the perf tool",
			Price:       "1.00",
			Category:    perfNamePrefix,
			Stock:       1_000_000,
		})
		if err != nil {
			f.cleanup()
			return nil, fmt.Errorf("failed to create perf product: %w", err)
		}
		f.products = append(f.products, product.ID)
	}
	return f, nil
}

// product returns a product id by index (with wraparound)
func (f *perfFixture) product(i int) uint64 {
	return f.products[i%len(f.products)]
}

func (f *perfFixture) cleanup() {
	if err := rpcShop.ClearCart(f.userID); err != nil {
		log.Printf("error clearing cart: %v\n", err)
	}
	for _, id := range f.products {
		if _, err := rpcShop.DeleteProduct(id); err != nil {
			log.Printf("error deleting product %d: %v\n", id, err)
		}
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint",
		"ShardID", "Serializer", "Transport",
		"Threads", "Products",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results in the order they ran
	for _, bm := range benchmarks {
		result := results[bm.name]

		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if result.NsPerOp() == 0 {
			skipped = "true"
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			bm.name,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			strings.Join(config.Transport.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.Transport.RetryCount),
			strconv.Itoa(config.Transport.ConnectionsPerEndpoint),
			strconv.FormatUint(util.GetShardID(), 10),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfProductSpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", bm.name, err)
		}
	}

	return nil
}
