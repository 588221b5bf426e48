package telemetry

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/teslashibe/go-sargan/pkg/guidance"
	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// JournalTimeLayout is the wall-clock suffix of every journal line.
const JournalTimeLayout = "15:04:05.000"

// Journal records one line per guidance command:
//
//	CMD:	(RIGHT:22)	TIME: 12.34	15:04:05.123
type Journal struct {
	logger *zap.Logger
	file   *os.File
	mu     sync.Mutex
}

// NewJournal writes to w and, when path is not empty, appends to path.
func NewJournal(w io.Writer, path string) (*Journal, error) {
	syncers := []zapcore.WriteSyncer{zapcore.AddSync(w)}

	var file *os.File
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		file = f
		syncers = append(syncers, zapcore.AddSync(f))
	}

	core := zapcore.NewCore(journalEncoder{zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
	})}, zapcore.NewMultiWriteSyncer(syncers...), zap.InfoLevel)

	return &Journal{logger: zap.New(core), file: file}, nil
}

// Record writes the entry for cmd. Commands without a target are skipped.
func (j *Journal) Record(cmd guidance.Command, inference time.Duration) {
	if j == nil || cmd.Target == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.logger.Info(CommandLine(cmd, inference))
}

// Close flushes and closes the journal file.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	_ = j.logger.Sync()
	if j.file != nil {
		return j.file.Close()
	}
	return nil
}

// journalEncoder appends the entry time after the message.
type journalEncoder struct {
	zapcore.Encoder
}

func (e journalEncoder) Clone() zapcore.Encoder {
	return journalEncoder{e.Encoder.Clone()}
}

func (e journalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	ent.Message = ent.Message + "\t" + ent.Time.Format(JournalTimeLayout)
	return e.Encoder.EncodeEntry(ent, fields)
}
