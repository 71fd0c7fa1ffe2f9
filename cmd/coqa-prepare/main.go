// coqa-prepare downloads a CoQA split and converts it to span-prediction
// training features, cached as a parquet file.
//
// Example:
//
//	coqa-prepare -data_dir=data -split=train -tokenizer=tokenizer.json -out=train.parquet
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"k8s.io/klog/v2"

	"github.com/SamTheMar/Question-Answering-CoQA/coqa"
	"github.com/SamTheMar/Question-Answering-CoQA/features"
	"github.com/SamTheMar/Question-Answering-CoQA/internal/progressbar"
	"github.com/SamTheMar/Question-Answering-CoQA/tokenizers/wordpiece"
)

var (
	flagDataDir   = flag.String("data_dir", "data", "Directory where dataset splits are stored.")
	flagSplit     = flag.String("split", "train", "Dataset split to prepare: train or dev.")
	flagTokenizer = flag.String("tokenizer", "", "Path to the model's tokenizer.json file.")
	flagMaxLength = flag.Int("max_length", features.DefaultMaxLength, "Maximum token length of each feature.")
	flagDocStride = flag.Int("doc_stride", features.DefaultDocStride, "Token overlap between consecutive context windows.")
	flagOut       = flag.String("out", "", "Output parquet file for the prepared features.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if err := run(); err != nil {
		klog.Exitf("coqa-prepare: %+v", err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var url string
	switch *flagSplit {
	case "train":
		url = coqa.TrainURL
	case "dev":
		url = coqa.DevURL
	default:
		return fmt.Errorf("unknown split %q, want train or dev", *flagSplit)
	}
	if *flagTokenizer == "" {
		return fmt.Errorf("-tokenizer is required")
	}
	if *flagOut == "" {
		return fmt.Errorf("-out is required")
	}

	bar := &progressbar.Bar{Desc: *flagSplit + ".json"}
	splitPath, err := coqa.DownloadSplit(ctx, *flagDataDir, url, *flagSplit,
		func(downloadedBytes, totalBytes int64) {
			fmt.Fprintf(os.Stderr, "\r%s", bar.Render(downloadedBytes, totalBytes))
			if downloadedBytes == totalBytes {
				fmt.Fprintln(os.Stderr)
			}
		})
	if err != nil {
		return err
	}

	f, err := coqa.Load(splitPath)
	if err != nil {
		return err
	}
	dataset := f.Flatten()
	klog.Infof("Loaded %d examples from %s split", dataset.Len(), *flagSplit)

	tok, err := wordpiece.NewFromFile(nil, *flagTokenizer)
	if err != nil {
		return err
	}
	feats, labels, err := features.PrepareTrainFeatures(tok, dataset, features.EncodeOptions{
		MaxLength: *flagMaxLength,
		DocStride: *flagDocStride,
	})
	if err != nil {
		return err
	}
	klog.Infof("Prepared %d features (%d examples)", len(feats), dataset.Len())

	if err := features.WriteSpanFeatures(*flagOut, feats, labels); err != nil {
		return err
	}
	klog.Infof("Wrote feature cache to %s", *flagOut)
	return nil
}
