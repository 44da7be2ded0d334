// idxtool builds and inspects an on-disk B+ tree index of integer keys
// loaded from a whitespace-separated file, as a small runnable demo
// alongside the storage engine.
//
// Usage:
//
//	idxtool build  -index <path> -keys <file>
//	idxtool get    -index <path> -key <n>
//	idxtool scan   -index <path> [-from <n>]
//	idxtool delete -index <path> -keys <file>
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"EmberDB/index/bplustree"
	"EmberDB/internal/trace"
	"EmberDB/storage/bufferpool"
	"EmberDB/storage/disk"
	"EmberDB/storage/types"
)

const (
	indexName       = "idxtool"
	leafMaxSize     = 64
	internalMaxSize = 64
	poolSize        = 128
	replacerK       = 2
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "build":
		err = runBuild(os.Args[2:])
	case "get":
		err = runGet(os.Args[2:])
	case "scan":
		err = runScan(os.Args[2:])
	case "delete":
		err = runDelete(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "idxtool: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: idxtool <build|get|scan|delete> [flags]")
}

func openTree(path string, verbose bool) (*bplustree.Tree[int64], *disk.Store, func(), error) {
	trace.Enable(verbose)

	dir, file := splitPath(path)
	store := disk.NewStore(dir)
	dm, err := store.Open(file)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}

	bp := bufferpool.New(poolSize, replacerK, dm)
	header, err := bplustree.OpenHeaderPage(bp)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening header page: %w", err)
	}

	tree, err := bplustree.Open[int64](indexName, bp, header, bplustree.Int64Codec{}, leafMaxSize, internalMaxSize)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening tree: %w", err)
	}

	closeAll := func() {
		bp.FlushAllPages()
		store.CloseAll()
	}
	return tree, store, closeAll, nil
}

// splitPath separates path into a directory and a bare name suitable for
// disk.Store.Open, which always appends ".idx" itself.
func splitPath(path string) (dir, name string) {
	dir, file := ".", path
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		dir, file = path[:idx], path[idx+1:]
	}
	return dir, strings.TrimSuffix(file, ".idx")
}

func runBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	indexPath := fs.String("index", "", "path to the index file")
	keysPath := fs.String("keys", "", "whitespace-separated file of integer keys to insert")
	verbose := fs.Bool("v", false, "enable trace logging")
	fs.Parse(args)

	if *indexPath == "" || *keysPath == "" {
		return fmt.Errorf("build requires -index and -keys")
	}

	tree, _, closeAll, err := openTree(*indexPath, *verbose)
	if err != nil {
		return err
	}
	defer closeAll()

	keys, err := readKeys(*keysPath)
	if err != nil {
		return err
	}

	inserted := 0
	for i, k := range keys {
		ok, err := tree.Insert(k, types.RID{PageID: types.PageID(k), Slot: uint32(i)})
		if err != nil {
			return fmt.Errorf("inserting %d: %w", k, err)
		}
		if ok {
			inserted++
		} else {
			fmt.Printf("%d: already present, skipped\n", k)
		}
	}
	fmt.Printf("inserted %d of %d keys, root=%d\n", inserted, len(keys), tree.Root())
	return nil
}

func runGet(args []string) error {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	indexPath := fs.String("index", "", "path to the index file")
	key := fs.Int64("key", 0, "key to look up")
	verbose := fs.Bool("v", false, "enable trace logging")
	fs.Parse(args)

	if *indexPath == "" {
		return fmt.Errorf("get requires -index")
	}

	tree, _, closeAll, err := openTree(*indexPath, *verbose)
	if err != nil {
		return err
	}
	defer closeAll()

	rid, ok, err := tree.Get(*key)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Printf("%d: not found\n", *key)
		return nil
	}
	fmt.Printf("%d: page=%d slot=%d\n", *key, rid.PageID, rid.Slot)
	return nil
}

func runScan(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	indexPath := fs.String("index", "", "path to the index file")
	from := fs.Int64("from", 0, "first key to scan from (default: smallest key)")
	verbose := fs.Bool("v", false, "enable trace logging")
	fs.Parse(args)

	hasFrom := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "from" {
			hasFrom = true
		}
	})

	if *indexPath == "" {
		return fmt.Errorf("scan requires -index")
	}

	tree, _, closeAll, err := openTree(*indexPath, *verbose)
	if err != nil {
		return err
	}
	defer closeAll()

	var it *bplustree.Iterator[int64]
	if hasFrom {
		it, err = tree.Seek(*from)
	} else {
		it, err = tree.First()
	}
	if err != nil {
		return err
	}
	defer it.Close()

	n := 0
	for it.Valid() {
		rid := it.Value()
		fmt.Printf("%d: page=%d slot=%d\n", it.Key(), rid.PageID, rid.Slot)
		n++
		more, err := it.Next()
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	fmt.Printf("%d entries\n", n)
	return nil
}

func runDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	indexPath := fs.String("index", "", "path to the index file")
	keysPath := fs.String("keys", "", "whitespace-separated file of integer keys to delete")
	verbose := fs.Bool("v", false, "enable trace logging")
	fs.Parse(args)

	if *indexPath == "" || *keysPath == "" {
		return fmt.Errorf("delete requires -index and -keys")
	}

	tree, _, closeAll, err := openTree(*indexPath, *verbose)
	if err != nil {
		return err
	}
	defer closeAll()

	keys, err := readKeys(*keysPath)
	if err != nil {
		return err
	}

	removed := 0
	for _, k := range keys {
		ok, err := tree.Delete(k)
		if err != nil {
			return fmt.Errorf("deleting %d: %w", k, err)
		}
		if ok {
			removed++
		}
	}
	fmt.Printf("removed %d of %d keys, root=%d\n", removed, len(keys), tree.Root())
	return nil
}

// readKeys parses a whitespace-separated file of integer keys.
func readKeys(path string) ([]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("readKeys: %w", err)
	}
	defer f.Close()

	var keys []int64
	scanner := bufio.NewScanner(f)
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		k, err := strconv.ParseInt(scanner.Text(), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("readKeys: %q: %w", scanner.Text(), err)
		}
		keys = append(keys, k)
	}
	return keys, scanner.Err()
}
