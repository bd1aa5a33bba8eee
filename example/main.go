// Command example is a small, non-networked demonstration of the KV
// engine and snapshot codec — Put a few typed values, read them back,
// round-trip through Save/Load, and print the result.
package main

import (
	"fmt"
	"os"

	"github.com/thebagchi/kvstored/internal/store"
)

func main() {
	st := store.New(16, nil)

	must(st.Put([]byte("name"), store.StringValue([]byte("Alice"))))
	must(st.Put([]byte("age"), store.Int64Value(30)))
	must(st.Put([]byte("balance"), store.DoubleValue(1024.5)))
	must(st.Put([]byte("active"), store.BoolValue(true)))
	must(st.Put([]byte("nickname"), store.NullValue()))

	fmt.Println("=== before save ===")
	printAll(st)

	const snapshotPath = "example.kvstored.db"
	if err := st.Save(snapshotPath); err != nil {
		fmt.Fprintln(os.Stderr, "save failed:", err)
		os.Exit(1)
	}
	defer os.Remove(snapshotPath)

	st.Clear()
	fmt.Printf("\nafter clear: size=%d\n", st.Size())

	if err := st.Load(snapshotPath); err != nil {
		fmt.Fprintln(os.Stderr, "load failed:", err)
		os.Exit(1)
	}

	fmt.Println("\n=== after load ===")
	printAll(st)
}

func printAll(st *store.Store) {
	for _, key := range st.Keys() {
		v, err := st.Get(key)
		if err != nil {
			continue
		}
		fmt.Printf("%-10s %-8s %v\n", string(key), v.Kind, render(v))
	}
}

func render(v store.Value) any {
	switch v.Kind {
	case store.KindString, store.KindBinary:
		return string(v.Bytes)
	case store.KindInt64:
		return v.I64
	case store.KindDouble:
		return v.F64
	case store.KindBool:
		return v.Bool
	default:
		return nil
	}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
