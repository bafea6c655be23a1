// Package voletriple implements the top-level Silent VOLE triple generator:
// a two-stage bootstrap (pre0 -> pre) that produces an
// initial correlated seed from a single real BaseSVOLE call, followed by a
// self-sustaining LPN-extend ladder where every round's tail becomes the
// next round's seed, so only one COPE/BaseSVOLE bootstrap ever runs per
// session.
//
// Grounded on _examples/original_source/src/vole_triple.rs's VoleTriple
// (Params, setup_sender/setup_receiver, extend_initialization, extend,
// extend_once, extend_inplace, byte_memory_need_inplace, silent_ot_left,
// check_triple), adapted onto this codebase's crypto/basecot, crypto/cope,
// crypto/svole, crypto/mpfss, crypto/lpn. Two deviations from that draft:
//
//   - extend's fast path (`num <= silent_ot_left()`) never advances ot_used
//     in the Rust draft, so a second call with the same arguments would
//     silently re-serve already-consumed triples. This implementation
//     advances ot_used on that path too.
//   - pre_x/vole_x are allocated in the Rust struct but never read or
//     written anywhere in that file; they are dropped here rather than
//     carried as dead fields.
package voletriple

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/phuocchubeo123/volefp/channel"
	"github.com/phuocchubeo123/volefp/crypto/basecot"
	"github.com/phuocchubeo123/volefp/crypto/block"
	"github.com/phuocchubeo123/volefp/crypto/cope"
	"github.com/phuocchubeo123/volefp/crypto/field"
	"github.com/phuocchubeo123/volefp/crypto/lpn"
	"github.com/phuocchubeo123/volefp/crypto/mpfss"
	"github.com/phuocchubeo123/volefp/crypto/otpre"
	"github.com/phuocchubeo123/volefp/crypto/prg"
	"github.com/phuocchubeo123/volefp/crypto/svole"
	"github.com/phuocchubeo123/volefp/logger"
)

// ErrParameterMismatch is returned when a Params value fails its internal
// consistency checks (n = t*2^log_bin_sz, n_pre >= k+t+1).
var ErrParameterMismatch = errors.New("voletriple: parameter mismatch")

// ErrNotInitialized is returned when Extend/ExtendInplace is called before
// ExtendInitialization.
var ErrNotInitialized = errors.New("voletriple: ExtendInitialization not run")

// ErrInsufficientSpace is returned by ExtendInplace when the requested
// buffer size doesn't fit the round granularity.
var ErrInsufficientSpace = errors.New("voletriple: byte_space does not fit ot_limit rounding")

// ErrTripleCheckFailed is the debug-only check_triple failure; the
// idiomatic Go adaptation returns it instead of panicking.
var ErrTripleCheckFailed = errors.New("voletriple: triple consistency check failed")

// Role distinguishes the two VoleTriple parties.
type Role int

const (
	RoleSender Role = iota
	RoleReceiver
)

// Params is a primal-LPN parameter set: the main
// (n,t,k,log_bin_sz) extend round plus two smaller bootstrap rounds
// (pre, pre0) that seed it.
type Params struct {
	N            int `yaml:"n"`
	T            int `yaml:"t"`
	K            int `yaml:"k"`
	LogBinSz     int `yaml:"log_bin_sz"`
	NPre         int `yaml:"n_pre"`
	TPre         int `yaml:"t_pre"`
	KPre         int `yaml:"k_pre"`
	LogBinSzPre  int `yaml:"log_bin_sz_pre"`
	NPre0        int `yaml:"n_pre0"`
	TPre0        int `yaml:"t_pre0"`
	KPre0        int `yaml:"k_pre0"`
	LogBinSzPre0 int `yaml:"log_bin_sz_pre0"`
}

// Validate checks the consistency constraints the Rust draft enforces in
// its constructor (with_params), reported as an error instead of a panic.
func (p Params) Validate() error {
	if p.N != p.T*(1<<uint(p.LogBinSz)) {
		return ErrParameterMismatch
	}
	if p.NPre != p.TPre*(1<<uint(p.LogBinSzPre)) {
		return ErrParameterMismatch
	}
	if p.NPre0 != p.TPre0*(1<<uint(p.LogBinSzPre0)) {
		return ErrParameterMismatch
	}
	if p.NPre < p.K+p.T+1 {
		return ErrParameterMismatch
	}
	if p.NPre0 < p.KPre+p.TPre+1 {
		return ErrParameterMismatch
	}
	return nil
}

// BufSz returns n - t - k - 1, the usable output length of one main round.
func (p Params) BufSz() int { return p.N - p.T - p.K - 1 }

// DefaultParams, WolverineParams and PhuocParams are the three built-in
// parameter sets, carried verbatim from
// original_source/src/vole_triple.rs's FP_DEFAULT/WOLVERINE_LPN/PHUOC_LPN
// constants.
var DefaultParams = Params{
	N: 10168320, T: 4965, K: 158000, LogBinSz: 11,
	NPre: 166400, TPre: 2600, KPre: 5060, LogBinSzPre: 6,
	NPre0: 9600, TPre0: 600, KPre0: 1220, LogBinSzPre0: 4,
}

var WolverineParams = Params{
	N: 10805248, T: 1319, K: 589760, LogBinSz: 13,
	NPre: 642048, TPre: 2508, KPre: 19870, LogBinSzPre: 8,
	NPre0: 22400, TPre0: 700, KPre0: 2000, LogBinSzPre0: 5,
}

var PhuocParams = Params{
	N: 675328, T: 1319, K: 589760, LogBinSz: 9,
	NPre: 642048, TPre: 2508, KPre: 19870, LogBinSzPre: 8,
	NPre0: 22400, TPre0: 700, KPre0: 2000, LogBinSzPre0: 5,
}

// LoadParamsYAML reads a Params record from a YAML file, for embedding
// applications that keep their own parameter configuration on disk (spec
// section 6's loader; this is a convenience, not wire-level parameter
// negotiation, which stays out of scope).
func LoadParamsYAML(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, err
	}
	var p Params
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Params{}, err
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// lpnIndexSeed and lpnCoeffSeed are the fixed public seeds every LPN round
// uses (original_source/src/vole_triple.rs: seed_pre0 = 16 zero bytes,
// seed_field_pre0 = 32 zero bytes with the first byte set to 1). This
// codebase's PRG only keys off a 16-byte seed, so the coefficient seed is
// carried as the first 16 bytes of that convention.
var (
	lpnIndexSeed block.B16
	lpnCoeffSeed = block.B16{1}
)

// VoleTriple is the per-session Silent VOLE triple generator.
type VoleTriple struct {
	role      Role
	malicious bool
	param     Params

	cot *basecot.BaseCOT

	m                 int
	otUsed            int
	otLimit           int
	extendInitialized bool

	preY, preZ   []field.Element
	voleY, voleZ []field.Element

	delta field.Element // sender only
}

// New runs the one-time base-COT bootstrap and returns
// a VoleTriple ready for SetupSender/SetupReceiver.
func New(ctx context.Context, ch *channel.Channel, role Role, malicious bool, param Params) (*VoleTriple, error) {
	if err := param.Validate(); err != nil {
		return nil, err
	}
	var cot *basecot.BaseCOT
	var err error
	if role == RoleSender {
		cot, err = basecot.CotGenPreSender(ctx, ch, nil, malicious)
	} else {
		cot, err = basecot.CotGenPreReceiver(ctx, ch, malicious)
	}
	if err != nil {
		return nil, err
	}
	logger.Logger().Info("voletriple: base COT bootstrap complete", "role", role, "malicious", malicious)
	return &VoleTriple{role: role, malicious: malicious, param: param, cot: cot}, nil
}

func deltaField(d block.B32) field.Element {
	be := make([]byte, 32)
	for i, b := range d {
		be[31-i] = b
	}
	return field.FromBigInt(new(big.Int).SetBytes(be))
}

// extendSend runs one MPFSS+LPN round for the sender: key holds t gamma
// values, 1 sacrifice, then k LPN-base values, and returns the n-length
// output y.
func (v *VoleTriple) extendSend(ctx context.Context, ch *channel.Channel, n, t, k, logBinSz int, key []field.Element) ([]field.Element, error) {
	ot := otpre.New(logBinSz * t)
	if err := v.cot.CotGenPreot(ctx, ch, ot, logBinSz*t, nil); err != nil {
		return nil, err
	}
	res, err := mpfss.SenderRun(ctx, ch, ot, t, logBinSz, v.delta, key[:t+1], v.malicious)
	if err != nil {
		return nil, err
	}
	exp := lpn.New(n, k, lpn.Seeds{Index: lpnIndexSeed, Coefficient: lpnCoeffSeed})
	lpnOut, err := exp.Expand(key[t+1 : t+1+k])
	if err != nil {
		return nil, err
	}
	y := make([]field.Element, n)
	for i := range y {
		y[i] = field.Add(res.Sparse[i], lpnOut[i])
	}
	return y, nil
}

// extendRecv is extendSend's receiver counterpart: mac plays the sender's
// gamma role, u is the receiver's own chosen values, and z is reconstructed
// both from the FSS-hidden alpha positions (mpfss.Result.Alphas) and the LPN
// expansion of u's tail, following mpfss_reg.rs's set_vec_x placement.
func (v *VoleTriple) extendRecv(ctx context.Context, ch *channel.Channel, n, t, k, logBinSz int, mac, u []field.Element) (y, z []field.Element, err error) {
	ot := otpre.New(logBinSz * t)
	if err := v.cot.CotGenPreot(ctx, ch, ot, logBinSz*t, nil); err != nil {
		return nil, nil, err
	}
	res, err := mpfss.ReceiverRun(ctx, ch, ot, t, logBinSz, mac[:t+1], v.malicious)
	if err != nil {
		return nil, nil, err
	}
	exp := lpn.New(n, k, lpn.Seeds{Index: lpnIndexSeed, Coefficient: lpnCoeffSeed})
	lpnY, err := exp.Expand(mac[t+1 : t+1+k])
	if err != nil {
		return nil, nil, err
	}
	lpnZ, err := exp.Expand(u[t+1 : t+1+k])
	if err != nil {
		return nil, nil, err
	}
	leaveN := 1 << uint(logBinSz)
	y = make([]field.Element, n)
	z = make([]field.Element, n)
	for i := range y {
		y[i] = field.Add(res.Sparse[i], lpnY[i])
	}
	copy(z, lpnZ)
	for i := 0; i < t; i++ {
		pos := i*leaveN + res.Alphas[i]
		z[pos] = field.Add(z[pos], u[i])
	}
	return y, z, nil
}

// SetupSender runs the Sender's two-stage bootstrap (pre0 -> pre): one real
// COPE/BaseSVOLE call seeds the pre0 round, whose tail seeds the pre round.
func (v *VoleTriple) SetupSender(ctx context.Context, ch *channel.Channel) error {
	v.delta = deltaField(v.cot.Delta())

	tripleN0 := 1 + v.param.TPre0 + v.param.KPre0
	copeS, err := cope.NewSender(ctx, ch, v.cot.Delta())
	if err != nil {
		return err
	}
	key0, err := svole.TripleGenSend(ctx, ch, copeS, tripleN0)
	if err != nil {
		return err
	}
	if err := ch.Flush(); err != nil {
		return err
	}

	preY0, err := v.extendSend(ctx, ch, v.param.NPre0, v.param.TPre0, v.param.KPre0, v.param.LogBinSzPre0, key0)
	if err != nil {
		return err
	}
	logger.Logger().Debug("voletriple: pre0 stage complete", "n_pre0", v.param.NPre0)

	tripleN := 1 + v.param.TPre + v.param.KPre
	preY, err := v.extendSend(ctx, ch, v.param.NPre, v.param.TPre, v.param.KPre, v.param.LogBinSzPre, preY0[:tripleN])
	if err != nil {
		return err
	}
	v.preY = preY
	logger.Logger().Debug("voletriple: pre stage complete", "n_pre", v.param.NPre)
	return nil
}

// SetupReceiver is SetupSender's receiver counterpart.
func (v *VoleTriple) SetupReceiver(ctx context.Context, ch *channel.Channel) error {
	tripleN0 := 1 + v.param.TPre0 + v.param.KPre0
	copeR, err := cope.NewReceiver(ctx, ch)
	if err != nil {
		return err
	}
	buf0 := make([]field.Element, tripleN0+1)
	if err := prg.New(nil, 0).RandomField(buf0); err != nil {
		return err
	}
	u0, a0 := buf0[:tripleN0], buf0[tripleN0]
	mac0, err := svole.TripleGenRecv(ctx, ch, copeR, u0, a0)
	if err != nil {
		return err
	}
	if err := ch.Flush(); err != nil {
		return err
	}

	preY0, preZ0, err := v.extendRecv(ctx, ch, v.param.NPre0, v.param.TPre0, v.param.KPre0, v.param.LogBinSzPre0, mac0, u0)
	if err != nil {
		return err
	}
	logger.Logger().Debug("voletriple: pre0 stage complete", "n_pre0", v.param.NPre0)

	tripleN := 1 + v.param.TPre + v.param.KPre
	preY, preZ, err := v.extendRecv(ctx, ch, v.param.NPre, v.param.TPre, v.param.KPre, v.param.LogBinSzPre, preY0[:tripleN], preZ0[:tripleN])
	if err != nil {
		return err
	}
	v.preY = preY
	v.preZ = preZ
	logger.Logger().Debug("voletriple: pre stage complete", "n_pre", v.param.NPre)
	return nil
}

// ExtendInitialization derives the main round's bookkeeping (m, ot_limit)
// from Params; must run once after setup, before Extend/ExtendInplace.
func (v *VoleTriple) ExtendInitialization() {
	v.m = v.param.K + v.param.T + 1
	v.otLimit = v.param.N - v.m
	v.otUsed = v.otLimit
	v.extendInitialized = true
}

// extendOnce runs a single main (n,t,k,log_bin_sz) round, chaining off
// pre_y/pre_z and feeding its own tail back as the next round's seed.
func (v *VoleTriple) extendOnce(ctx context.Context, ch *channel.Channel) (dataY, dataZ []field.Element, err error) {
	p := v.param
	switch v.role {
	case RoleSender:
		key := make([]field.Element, v.m)
		copy(key, v.preY[:v.m])
		dataY, err = v.extendSend(ctx, ch, p.N, p.T, p.K, p.LogBinSz, key)
		if err != nil {
			return nil, nil, err
		}
		v.preY = append([]field.Element(nil), dataY[v.otLimit:]...)
		return dataY, nil, nil
	default:
		keyY := make([]field.Element, v.m)
		keyZ := make([]field.Element, v.m)
		copy(keyY, v.preY[:v.m])
		copy(keyZ, v.preZ[:v.m])
		dataY, dataZ, err = v.extendRecv(ctx, ch, p.N, p.T, p.K, p.LogBinSz, keyY, keyZ)
		if err != nil {
			return nil, nil, err
		}
		v.preY = append([]field.Element(nil), dataY[v.otLimit:]...)
		v.preZ = append([]field.Element(nil), dataZ[v.otLimit:]...)
		return dataY, dataZ, nil
	}
}

// SilentOTLeft reports how many already-generated triples remain unconsumed.
func (v *VoleTriple) SilentOTLeft() int { return v.otLimit - v.otUsed }

// ByteMemoryNeedInplace reports the buffer length ExtendInplace needs to
// serve at least tpNeed triples, rounded up to a whole number of rounds.
func (v *VoleTriple) ByteMemoryNeedInplace(tpNeed int) int {
	round := (tpNeed - 1) / v.otLimit
	return round*v.otLimit + v.param.N
}

// Extend returns num (y, z) triple shares, generating fresh rounds as
// needed. z is nil for RoleSender (the Receiver side of the correlation).
func (v *VoleTriple) Extend(ctx context.Context, ch *channel.Channel, num int) (y, z []field.Element, err error) {
	if !v.extendInitialized {
		return nil, nil, ErrNotInitialized
	}
	y = make([]field.Element, num)
	if v.role == RoleReceiver {
		z = make([]field.Element, num)
	}

	if num <= v.SilentOTLeft() {
		copy(y, v.voleY[v.otUsed:v.otUsed+num])
		if v.role == RoleReceiver {
			copy(z, v.voleZ[v.otUsed:v.otUsed+num])
		}
		v.otUsed += num
		return y, z, nil
	}

	gened := v.SilentOTLeft()
	copied := 0
	if gened > 0 {
		copy(y[:gened], v.voleY[v.otUsed:v.otUsed+gened])
		if v.role == RoleReceiver {
			copy(z[:gened], v.voleZ[v.otUsed:v.otUsed+gened])
		}
		copied = gened
	}

	v.m = v.param.K + v.param.T + 1
	roundInplace := 0
	if num > gened+v.m {
		roundInplace = (num - gened - v.m) / v.otLimit
	}
	lastRoundOT := num - gened - roundInplace*v.otLimit
	roundMemcpy := lastRoundOT > v.otLimit
	if roundMemcpy {
		lastRoundOT -= v.otLimit
	}

	for i := 0; i < roundInplace; i++ {
		dy, dz, err := v.extendOnce(ctx, ch)
		if err != nil {
			return nil, nil, err
		}
		copy(y[copied:copied+v.param.N], dy)
		if v.role == RoleReceiver {
			copy(z[copied:copied+v.param.N], dz)
		}
		v.otUsed = v.otLimit
		copied += v.otLimit
	}

	if roundMemcpy {
		dy, dz, err := v.extendOnce(ctx, ch)
		if err != nil {
			return nil, nil, err
		}
		v.voleY = dy
		if v.role == RoleReceiver {
			v.voleZ = dz
		}
		copy(y[copied:copied+v.otLimit], dy)
		if v.role == RoleReceiver {
			copy(z[copied:copied+v.otLimit], dz)
		}
		v.otUsed = v.otLimit
		copied += v.otLimit
	}

	if lastRoundOT > 0 {
		dy, dz, err := v.extendOnce(ctx, ch)
		if err != nil {
			return nil, nil, err
		}
		v.voleY = dy
		if v.role == RoleReceiver {
			v.voleZ = dz
		}
		copy(y[copied:], dy[:lastRoundOT])
		if v.role == RoleReceiver {
			copy(z[copied:], dz[:lastRoundOT])
		}
		v.otUsed = lastRoundOT
	}

	return y, z, nil
}

// ExtendInplace fills a byteSpace-sized buffer with whole rounds, for
// callers that pre-allocate once and want every round written directly into
// it rather than trickled out through Extend.
func (v *VoleTriple) ExtendInplace(ctx context.Context, ch *channel.Channel, byteSpace int) (y, z []field.Element, err error) {
	if byteSpace < v.param.N {
		return nil, nil, ErrInsufficientSpace
	}
	if !v.extendInitialized {
		return nil, nil, ErrNotInitialized
	}
	tpOutputN := byteSpace - v.m
	if tpOutputN%v.otLimit != 0 {
		return nil, nil, ErrInsufficientSpace
	}
	round := tpOutputN / v.otLimit

	y = make([]field.Element, byteSpace)
	if v.role == RoleReceiver {
		z = make([]field.Element, byteSpace)
	}
	copied := 0
	for i := 0; i < round; i++ {
		dy, dz, err := v.extendOnce(ctx, ch)
		if err != nil {
			return nil, nil, err
		}
		copy(y[copied:copied+v.param.N], dy)
		if v.role == RoleReceiver {
			copy(z[copied:copied+v.param.N], dz)
		}
		v.otUsed = v.otLimit
		copied += v.otLimit
	}
	return y, z, nil
}

// CheckTriple is the debug-only consistency check: the
// Sender sends (delta, y); the Receiver verifies y[i] == k[i] + delta*z[i]
// for every i and returns an error (not a panic, unlike
// original_source/src/vole_triple.rs::check_triple) on the first mismatch.
func (v *VoleTriple) CheckTriple(ctx context.Context, ch *channel.Channel, y, z []field.Element) error {
	switch v.role {
	case RoleSender:
		if err := ch.SendField(ctx, []field.Element{v.delta}); err != nil {
			return err
		}
		return ch.SendField(ctx, y)
	default:
		ds, err := ch.RecvField(ctx, 1)
		if err != nil {
			return err
		}
		delta := ds[0]
		k, err := ch.RecvField(ctx, len(y))
		if err != nil {
			return err
		}
		for i := range y {
			if !field.Equal(y[i], field.Add(k[i], field.Mul(delta, z[i]))) {
				return fmt.Errorf("%w: at index %d", ErrTripleCheckFailed, i)
			}
		}
		return nil
	}
}
