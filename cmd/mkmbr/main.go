package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"mkmbr/internal/core"
	"mkmbr/internal/mbr"
)

func usage() {
	fmt.Print(`mkmbr - assemble a legacy BIOS (MBR) disk image from partition payloads
Usage:
  mkmbr build <out.img> -p <file>[:<typehex>][:<codec>] [-p ...] [options]
      -p file[:type[:codec]]  partition payload, in table order (1-4 of these);
                              type is hex 01-FF, default 83;
                              codec auto|gzip|zstd|lz4|xz|lzma|bzip2 decompresses the payload first
      -b file[:codec]         bootstrap code, at most 446 bytes
      -a N                    active partition number 1-4 (default 1)
      -z codec                compress the finished image as a whole
      -v                      verbose layout diagnostics

  mkmbr inspect <image>       print the decoded partition table
  mkmbr verify <image>        structural checks + independent re-decode
  mkmbr tui <image>           interactive table viewer
  mkmbr help

Examples:
  mkmbr build disk.img -p rootfs.fat16:0E
  mkmbr build disk.img -b bootstrap.bin -p rootfs.fat16:0E -p data.ext4:83 -a 1
  mkmbr build disk.img.gz -p rootfs.img.zst::zstd -z gzip
`)
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		return
	}

	switch args[0] {
	case "help", "-h", "--help":
		usage()
	case "build":
		if err := runBuild(args[1:]); err != nil {
			fail("build", err)
		}
	case "inspect":
		if len(args) != 2 {
			usage()
			os.Exit(1)
		}
		if err := runInspect(args[1]); err != nil {
			fail("inspect", err)
		}
	case "verify":
		if len(args) != 2 {
			usage()
			os.Exit(1)
		}
		if err := runVerify(args[1]); err != nil {
			fail("verify", err)
		}
	case "tui":
		if len(args) != 2 {
			usage()
			os.Exit(1)
		}
		if err := runTUI(args[1]); err != nil {
			fail("tui", err)
		}
	default:
		usage()
		os.Exit(1)
	}
}

func fail(what string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(2)
}

func runBuild(args []string) error {
	if len(args) < 1 || strings.HasPrefix(args[0], "-") {
		return fmt.Errorf("missing output path")
	}
	out := args[0]
	st := core.New()
	outComp := "none"

	i := 1
	for i < len(args) {
		switch args[i] {
		case "-v":
			log.SetLevel(log.DebugLevel)
			i++
		case "-a":
			if i+1 >= len(args) {
				return fmt.Errorf("-a needs a value")
			}
			n, err := strconv.Atoi(args[i+1])
			if err != nil || n < 1 || n > mbr.MaxPartitions {
				return fmt.Errorf("invalid active partition %q (want 1-%d)", args[i+1], mbr.MaxPartitions)
			}
			st.Active = n
			i += 2
		case "-b":
			if i+1 >= len(args) {
				return fmt.Errorf("-b needs a value")
			}
			path, codec := splitOpt(args[i+1])
			if err := st.LoadBootstrap(path, codec); err != nil {
				return err
			}
			i += 2
		case "-z":
			if i+1 >= len(args) {
				return fmt.Errorf("-z needs a value")
			}
			outComp = args[i+1]
			i += 2
		case "-p":
			if i+1 >= len(args) {
				return fmt.Errorf("-p needs a value")
			}
			if err := addPartition(st, args[i+1]); err != nil {
				return err
			}
			i += 2
		default:
			return fmt.Errorf("unknown argument %q", args[i])
		}
	}

	if len(st.Parts) < 1 {
		return fmt.Errorf("at least one -p partition required")
	}
	if len(st.Parts) > mbr.MaxPartitions {
		return fmt.Errorf("at most %d partitions, got %d", mbr.MaxPartitions, len(st.Parts))
	}
	if st.Active > len(st.Parts) {
		return fmt.Errorf("active partition %d does not exist (have %d)", st.Active, len(st.Parts))
	}

	info, err := st.BuildFile(out, outComp)
	if err != nil {
		return err
	}
	log.Debugf("mbr (bootstrap_len=%d) (partitions=%d) (sectors=%d)",
		len(st.Bootstrap), len(st.Parts), info.Total/mbr.SectorSize)
	for n, lo := range info.Layouts {
		log.Debugf("partition %d @ %d+%d (pad=%d) (active=%v) (type=0x%02X): %s",
			n+1, lo.StartLBA, lo.Sectors, lo.Padding, st.Active == n+1, st.Parts[n].Type, st.Parts[n].Name)
	}
	fmt.Printf("wrote %s (image %d bytes)\n", out, info.Total)
	return nil
}

// addPartition parses file[:typehex[:codec]] and validates the raw values
// before anything reaches the core.
func addPartition(st *core.State, arg string) error {
	fields := strings.Split(arg, ":")
	if len(fields) > 3 || fields[0] == "" {
		return fmt.Errorf("invalid partition spec %q", arg)
	}
	path := fields[0]
	typ := byte(0x83)
	if len(fields) >= 2 && fields[1] != "" {
		v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(fields[1]), "0x"), 16, 16)
		if err != nil || v < 1 || v > 0xFF {
			return fmt.Errorf("invalid partition type %q (hex 01-FF)", fields[1])
		}
		typ = byte(v)
	}
	if _, err := os.Stat(path); err != nil {
		return err
	}
	if len(fields) == 3 && fields[2] != "" && fields[2] != "none" {
		return st.LoadPartition(path, typ, fields[2])
	}
	st.AddPartitionFile(path, typ)
	return nil
}

func splitOpt(arg string) (path, codec string) {
	if n := strings.LastIndex(arg, ":"); n > 0 {
		return arg[:n], arg[n+1:]
	}
	return arg, "none"
}

func runInspect(path string) error {
	ents, err := mbr.Detect(path)
	if err != nil {
		return err
	}
	for _, e := range ents {
		fmt.Println(e)
	}
	return nil
}

func runVerify(path string) error {
	rep, err := core.VerifyImage(path)
	if err != nil {
		return err
	}
	fmt.Printf("%s: ok (%d bytes, %d partitions)\n", path, rep.ImageSize, len(rep.Entries))
	for _, e := range rep.Entries {
		fmt.Println(e)
	}
	return nil
}
