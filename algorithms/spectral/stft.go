package spectral

import (
	"fmt"
	"math/cmplx"
	"runtime"
	"sync"

	"github.com/RyanBlaney/sonido-coach/algorithms/common"
	"github.com/RyanBlaney/sonido-coach/algorithms/windowing"
	"github.com/RyanBlaney/sonido-coach/logging"
)

// STFTConfig describes the framing of a Short-Time Fourier Transform
type STFTConfig struct {
	WindowSize int  `json:"window_size"`
	HopSize    int  `json:"hop_size"`
	Center     bool `json:"center"` // pad WindowSize/2 zeros on both ends
}

// DefaultSTFTConfig matches the 2048/512 centred framing used across the analyzers
func DefaultSTFTConfig() STFTConfig {
	return STFTConfig{
		WindowSize: 2048,
		HopSize:    512,
		Center:     true,
	}
}

// STFT provides Short-Time Fourier Transform functionality
type STFT struct {
	config STFTConfig
	fft    *FFT
	window windowing.Window
	logger logging.Logger
}

// STFTResult holds the result of STFT analysis
type STFTResult struct {
	Magnitude      [][]float64 `json:"magnitude"` // Time x Frequency magnitude matrix
	TimeFrames     int         `json:"time_frames"`
	FreqBins       int         `json:"freq_bins"`
	SampleRate     int         `json:"sample_rate"`
	WindowSize     int         `json:"window_size"`
	HopSize        int         `json:"hop_size"`
	FreqResolution float64     `json:"freq_resolution"` // Hz/bin
	TimeResolution float64     `json:"time_resolution"` // seconds/frame
}

// Power returns the squared magnitude spectrogram
func (r *STFTResult) Power() [][]float64 {
	power := make([][]float64, len(r.Magnitude))
	for t, frame := range r.Magnitude {
		power[t] = make([]float64, len(frame))
		for f, mag := range frame {
			power[t][f] = mag * mag
		}
	}
	return power
}

// NewSTFT creates a new STFT calculator with a periodic Hann window
func NewSTFT(config STFTConfig) *STFT {
	return &STFT{
		config: config,
		fft:    NewFFT(),
		window: windowing.NewPeriodicHann(config.WindowSize),
		logger: logging.WithFields(logging.Fields{
			"component": "stft",
		}),
	}
}

// Compute computes the STFT with a worker pool, one FFT per frame
func (s *STFT) Compute(signal []float64, sampleRate int) (*STFTResult, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}
	if s.config.WindowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive")
	}
	if s.config.HopSize <= 0 {
		return nil, fmt.Errorf("hop size must be positive")
	}

	frames := common.Frame(signal, s.config.WindowSize, s.config.HopSize, s.config.Center)
	numFrames := len(frames)
	if numFrames == 0 {
		return nil, fmt.Errorf("signal too short for window size %d", s.config.WindowSize)
	}

	freqBins := s.config.WindowSize/2 + 1
	magnitude := make([][]float64, numFrames)

	numWorkers := s.getOptimalWorkerCount(numFrames)
	jobs := make(chan int, numFrames)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for frameIdx := range jobs {
				frame := frames[frameIdx]
				if err := s.window.ApplyInPlace(frame); err != nil {
					s.logger.Warn("window mismatch, frame left unwindowed", logging.Fields{
						"frame": frameIdx,
						"error": err.Error(),
					})
				}

				fftResult := s.fft.Compute(frame)
				mags := make([]float64, freqBins)
				for i := 0; i < freqBins; i++ {
					mags[i] = cmplx.Abs(fftResult[i])
				}
				magnitude[frameIdx] = mags
			}
		}()
	}

	for frameIdx := 0; frameIdx < numFrames; frameIdx++ {
		jobs <- frameIdx
	}
	close(jobs)
	wg.Wait()

	return &STFTResult{
		Magnitude:      magnitude,
		TimeFrames:     numFrames,
		FreqBins:       freqBins,
		SampleRate:     sampleRate,
		WindowSize:     s.config.WindowSize,
		HopSize:        s.config.HopSize,
		FreqResolution: float64(sampleRate) / float64(s.config.WindowSize),
		TimeResolution: float64(s.config.HopSize) / float64(sampleRate),
	}, nil
}

// getOptimalWorkerCount determines the optimal number of workers based on workload
func (s *STFT) getOptimalWorkerCount(numFrames int) int {
	numCPU := runtime.NumCPU()

	// For small workloads, don't over-parallelize
	if numFrames < 100 {
		return max(1, min(numCPU/2, numFrames))
	}

	if numFrames < 1000 {
		return min(numCPU, 8)
	}

	return numCPU
}
