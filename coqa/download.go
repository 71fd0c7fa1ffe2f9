package coqa

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/SamTheMar/Question-Answering-CoQA/internal/downloader"
	"github.com/SamTheMar/Question-Answering-CoQA/internal/files"
)

// Official CoQA split URLs.
const (
	TrainURL = "https://nlp.stanford.edu/data/coqa/coqa-train-v1.0.json"
	DevURL   = "https://nlp.stanford.edu/data/coqa/coqa-dev-v1.0.json"
)

// DefaultDirCreationPerm is used when creating the data directory.
const DefaultDirCreationPerm = os.FileMode(0755)

// SplitPath returns the local path a split downloads to:
// <dataPath>/<suffix>.json.
func SplitPath(dataPath, suffix string) string {
	return filepath.Join(dataPath, suffix+".json")
}

// DownloadSplit fetches a dataset split from url to <dataPath>/<suffix>.json
// and returns that path.
//
// It is idempotent: if the target file already exists it returns immediately
// without any network activity. The data directory is created if absent. The
// file is downloaded to a temporary name and atomically renamed into place,
// so a partial transfer is never visible at the target path. A ".lock" file
// coordinates multiple processes downloading the same split.
//
// The progress callback, if not nil, is invoked with (downloadedBytes,
// totalBytes) as the transfer proceeds. Failed transfers are returned to the
// caller unmodified; there is no retry.
func DownloadSplit(ctx context.Context, dataPath, url, suffix string, progress downloader.ProgressCallback) (string, error) {
	target := SplitPath(dataPath, suffix)
	if files.Exists(target) {
		return target, nil
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dataPath, DefaultDirCreationPerm); err != nil {
		return "", errors.Wrapf(err, "failed to create data directory %q", dataPath)
	}

	lockPath := target + ".lock"
	var mainErr error
	errLock := execOnFileLock(lockPath, func() {
		if files.Exists(target) {
			// Some concurrent other process (or goroutine) already downloaded the file.
			return
		}

		klog.V(1).Infof("Downloading CoQA %s split from %q (it may take a while)", suffix, url)
		tmpPath := target + ".downloading-" + uuid.NewString()
		defer func() {
			if files.Exists(tmpPath) {
				if err := os.Remove(tmpPath); err != nil {
					klog.Warningf("Failed removing temporary file %q: %v", tmpPath, err)
				}
			}
		}()

		mainErr = downloader.New().Download(ctx, url, tmpPath, progress)
		if mainErr != nil {
			mainErr = errors.WithMessagef(mainErr, "while downloading %q to %q", url, tmpPath)
			return
		}
		if err := os.Rename(tmpPath, target); err != nil {
			mainErr = errors.Wrapf(err, "failed to move downloaded file %q to %q", tmpPath, target)
			return
		}
		klog.V(1).Infof("Download of CoQA %s split completed", suffix)

		// Target now exists, so we no longer need the lock file.
		if err := os.Remove(lockPath); err != nil {
			klog.Warningf("Error removing lock file %q: %+v", lockPath, err)
		}
	})
	if mainErr != nil {
		return "", mainErr
	}
	if errLock != nil {
		return "", errors.WithMessagef(errLock, "while locking %q to download %q", lockPath, url)
	}
	return target, nil
}

// execOnFileLock opens the lockPath file (or creates it if it doesn't yet
// exist), locks it, and executes the function. If lockPath is already locked,
// it polls with a 1 to 2 seconds period (randomly), until it acquires the
// lock.
//
// The lockPath is not removed. It's safe to remove it from the given fn, if
// one knows that no new calls to execOnFileLock with the same lockPath are
// going to be made.
func execOnFileLock(lockPath string, fn func()) (err error) {
	fileLock := flock.New(lockPath)
	for {
		locked, lockErr := fileLock.TryLock()
		if lockErr != nil {
			return errors.Wrapf(lockErr, "while trying to lock %q", lockPath)
		}
		if locked {
			break
		}
		// Wait from 1 to 2 seconds.
		time.Sleep(time.Millisecond * time.Duration(1000+rand.Intn(1000)))
	}

	// Clean up in a deferred function, so it happens even if fn panics.
	defer func() {
		if unlockErr := fileLock.Unlock(); unlockErr != nil {
			if err == nil {
				err = errors.Wrapf(unlockErr, "unlocking file %q", lockPath)
			} else {
				klog.Warningf("Error unlocking file %q: %v", lockPath, unlockErr)
			}
		}
	}()

	fn()
	return
}
