package InputParameters

import (
	"fmt"
	"sort"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type InputParameters struct {
	Title                 string             `yaml:"Title"`
	ProximityThreshold    float64            `yaml:"ProximityThreshold"` // relative separation of the far-field cutoff
	QuadRelTol            float64            `yaml:"QuadRelTol"`
	QuadAbsTol            float64            `yaml:"QuadAbsTol"`
	QuadMaxEvals          int                `yaml:"QuadMaxEvals"`
	SingularOrder         int                `yaml:"SingularOrder"` // Gauss nodes per dimension in the singular evaluator
	NumThreads            int                `yaml:"NumThreads"`
	Symmetric             bool               `yaml:"Symmetric"`
	Omega                 float64            `yaml:"Omega"`
	ExteriorMedium        string             `yaml:"ExteriorMedium"`
	Media                 map[string]Medium  `yaml:"Media"` // key is the medium name referenced by surfaces
	Surfaces              map[string]Surface `yaml:"Surfaces"`
	NumGradientComponents int                `yaml:"NumGradientComponents"`
}

// Medium is the material description of one homogeneous region.
type Medium struct {
	Eps float64 `yaml:"Eps"`
	Mu  float64 `yaml:"Mu"`
}

// Surface names a meshed surface and its material binding.
type Surface struct {
	MeshFile string `yaml:"MeshFile"`
	IsPEC    bool   `yaml:"IsPEC"`
	Medium   string `yaml:"Medium"`
}

func (ip *InputParameters) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, ip); err != nil {
		return err
	}
	return ip.setDefaults()
}

func (ip *InputParameters) setDefaults() error {
	if ip.ProximityThreshold == 0 {
		ip.ProximityThreshold = 4.0
	}
	if ip.QuadRelTol == 0 {
		ip.QuadRelTol = 1.e-8
	}
	if ip.QuadMaxEvals == 0 {
		ip.QuadMaxEvals = 100000
	}
	if ip.SingularOrder == 0 {
		ip.SingularOrder = 12
	}
	if ip.Omega == 0 {
		return fmt.Errorf("Omega must be specified and nonzero")
	}
	if ip.NumGradientComponents < 0 || ip.NumGradientComponents > 3 {
		return fmt.Errorf("NumGradientComponents must be 0..3, have %d", ip.NumGradientComponents)
	}
	return nil
}

func (ip *InputParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("%8.5f\t\t= Omega\n", ip.Omega)
	fmt.Printf("%8.5f\t\t= ProximityThreshold\n", ip.ProximityThreshold)
	fmt.Printf("%8.2e\t\t= QuadRelTol\n", ip.QuadRelTol)
	fmt.Printf("[%d]\t\t\t= SingularOrder\n", ip.SingularOrder)
	fmt.Printf("[%v]\t\t\t= Symmetric\n", ip.Symmetric)
	keys := make([]string, len(ip.Surfaces))
	i := 0
	for k := range ip.Surfaces {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("Surfaces[%s] = %v\n", key, ip.Surfaces[key])
	}
}
