package main

import (
	"flag"
	"fmt"

	"go.viam.com/rdk/logging"

	"github.com/erh/autocal"
)

func main() {
	err := realMain()
	if err != nil {
		panic(err)
	}
}

func realMain() error {
	logger := logging.NewLogger("autocal")

	cmd := flag.String("cmd", "", "command")
	in := flag.String("in", "", "scene directory to replay")
	out := flag.String("out", "", "output file")
	debug := flag.Bool("debug", false, "verbose logging")

	flag.Parse()

	if *cmd == "" {
		return fmt.Errorf("need a cmd")
	}
	if *in == "" {
		return fmt.Errorf("need an 'in' scene directory")
	}
	if *debug {
		logger.SetLevel(logging.DEBUG)
	}

	fs, err := autocal.ReadDiagnostics(*in)
	if err != nil {
		return err
	}

	opt := autocal.NewOptimizer(autocal.DefaultParams(), logger)
	if err := opt.Feed(fs); err != nil {
		return err
	}

	if *cmd == "edges" {
		if *out == "" {
			return fmt.Errorf("need an 'out'")
		}
		logger.Infof("extracted %d valid edges", len(opt.ValidEdges()))
		return opt.WriteVertexPCD(*out)
	}

	if *cmd == "calibrate" {
		iters, err := opt.Optimize()
		if err != nil {
			return err
		}

		m := opt.Calibration()
		dsm := opt.DSMParameters()
		logger.Infof("iterations: %d cost: %.6f", iters, opt.Cost())
		logger.Infof("color intrinsics: fx=%.4f fy=%.4f ppx=%.4f ppy=%.4f",
			m.Intrinsics.Fx, m.Intrinsics.Fy, m.Intrinsics.Ppx, m.Intrinsics.Ppy)
		logger.Infof("rotation: %v", m.Rotation)
		logger.Infof("translation: %v", m.Translation)
		logger.Infof("dsm: h-scale=%.6f v-scale=%.6f", dsm.HScale, dsm.VScale)

		if *out != "" {
			return opt.WriteDiagnostics(*out)
		}
		return nil
	}

	return fmt.Errorf("invalid command [%s]", *cmd)
}
