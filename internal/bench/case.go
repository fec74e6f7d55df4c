package bench

import (
	"bytes"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/signalnine/abebench/internal/monitor"
	"github.com/signalnine/abebench/internal/result"
)

var ErrInvalidSize = errors.New("payload size must be positive")

const DefaultPolicy = "((ONE and THREE) and (TWO OR FOUR))"

var DefaultAttributes = []string{"ONE", "TWO", "THREE"}

// Case measures one encrypt/decrypt round trip.
//
// The synthetic payload is allocated to the requested size but is not what
// gets encrypted: the measured call encrypts a random group element standing
// in for a hybrid-encryption content key. Timings therefore do not scale with
// payload size.
type Case struct {
	Monitor    *monitor.Monitor
	Attributes []string
	Policy     string

	reclaim func()
}

func NewCase(m *monitor.Monitor, attrs []string, policy string) *Case {
	if len(attrs) == 0 {
		attrs = DefaultAttributes
	}
	if policy == "" {
		policy = DefaultPolicy
	}
	return &Case{
		Monitor:    m,
		Attributes: attrs,
		Policy:     policy,
		reclaim:    debug.FreeOSMemory,
	}
}

// Payload returns sizeKB kilobytes of filler.
func Payload(sizeKB int) []byte {
	return bytes.Repeat([]byte{'A'}, sizeKB*1024)
}

// Run executes the case against already set-up parameters.
func (c *Case) Run(capability Capability, pp PublicParams, msk MasterSecret, sizeKB int) (result.CaseResult, error) {
	if sizeKB <= 0 {
		return result.CaseResult{}, fmt.Errorf("%w: %d", ErrInvalidSize, sizeKB)
	}
	payload := Payload(sizeKB)
	defer runtime.KeepAlive(payload)

	key, err := capability.KeyGen(pp, msk, c.Attributes)
	if err != nil {
		return result.CaseResult{}, fmt.Errorf("keygen: %w", err)
	}
	msg, err := capability.RandomValue(pp)
	if err != nil {
		return result.CaseResult{}, fmt.Errorf("random value: %w", err)
	}

	res := result.CaseResult{PayloadSizeKB: sizeKB}

	var ct Ciphertext
	res.Encryption.Sample, err = c.measure(func() error {
		var err error
		ct, err = capability.Encrypt(pp, msg, c.Policy)
		return err
	})
	if err != nil {
		return result.CaseResult{}, fmt.Errorf("encrypt: %w", err)
	}

	var recovered Value
	res.Decryption.Sample, err = c.measure(func() error {
		var err error
		recovered, err = capability.Decrypt(pp, ct, key)
		return err
	})
	if err != nil {
		return result.CaseResult{}, fmt.Errorf("decrypt: %w", err)
	}

	res.Success = recovered != nil && bytes.Equal(recovered.Bytes(), msg.Bytes())
	return res, nil
}

// measure brackets exactly one call with reclamation, memory and CPU
// baselines, and wall-clock timing.
func (c *Case) measure(op func() error) (result.Sample, error) {
	if c.reclaim != nil {
		c.reclaim()
	}
	before := c.Monitor.MemoryKB()
	c.Monitor.Start()

	start := time.Now()
	err := op()
	elapsed := time.Since(start)

	cpu := c.Monitor.CPUPercentIsolated()
	after := c.Monitor.MemoryKB()
	if err != nil {
		return result.Sample{}, err
	}
	return result.Sample{
		ElapsedSeconds: elapsed.Seconds(),
		CPUPercent:     cpu,
		MemoryKB:       result.MemoryDeltaKB(before, after),
	}, nil
}
