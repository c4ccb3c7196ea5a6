/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io/ioutil"
	"os"
	"time"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/parroyoh/scuff-em/InputParameters"
	"github.com/parroyoh/scuff-em/bem"
	"github.com/parroyoh/scuff-em/cubature"
	"github.com/parroyoh/scuff-em/geom"
	"github.com/parroyoh/scuff-em/rwg"
	"github.com/parroyoh/scuff-em/substrate"
	"github.com/parroyoh/scuff-em/utils"
)

type ModelAssemble struct {
	ICFile     string
	Refinement int
	Separation float64
	Profile    bool
}

// AssembleCmd represents the assemble command
var AssembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Assemble the interaction matrix of two parallel square plates",
	Long: `Assemble the interaction matrix of two parallel perfectly conducting
square plates, reporting block norms, quadrature convergence and cache
statistics. Serves as a smoke test and profiling target for the engine.`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
			ma  = &ModelAssemble{}
		)
		fmt.Println("assemble called")
		if ma.ICFile, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
			panic(err)
		}
		ma.Refinement, _ = cmd.Flags().GetInt("refinement")
		ma.Separation, _ = cmd.Flags().GetFloat64("separation")
		ma.Profile, _ = cmd.Flags().GetBool("profile")
		ip := processAssembleInput(ma)
		RunAssemble(ma, ip)
	},
}

func processAssembleInput(ma *ModelAssemble) (ip *InputParameters.InputParameters) {
	if len(ma.ICFile) == 0 {
		err := fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile) in YAML format")
		fmt.Printf("error: %s\n", err.Error())
		exampleFile := `
########################################
Title: "Parallel Plates"
Omega: 0.5
ProximityThreshold: 4.
QuadRelTol: 1.e-8
SingularOrder: 12
Symmetric: true
ExteriorMedium: Air
Media:
  Air: {Eps: 1.0006}
  Silicon: {Eps: 11.7}
Surfaces:
  upper: {IsPEC: false, Medium: Silicon}
########################################
`
		fmt.Printf("Example File:%s\n", exampleFile)
		os.Exit(1)
	}
	var data []byte
	data, err := ioutil.ReadFile(ma.ICFile)
	if err != nil {
		panic(err)
	}
	ip = &InputParameters.InputParameters{}
	if err = ip.Parse(data); err != nil {
		panic(err)
	}
	applyOverrides(ip)
	return
}

// applyOverrides overlays the per-run tuning knobs bound by viper
// (SCUFF_* environment variables and the .scuff-em config file) onto the
// parsed parameter file. Zero means "not set": none of these knobs has a
// meaningful zero value.
func applyOverrides(ip *InputParameters.InputParameters) {
	if v := viper.GetFloat64("QuadRelTol"); v != 0 {
		ip.QuadRelTol = v
	}
	if v := viper.GetFloat64("QuadAbsTol"); v != 0 {
		ip.QuadAbsTol = v
	}
	if v := viper.GetInt("QuadMaxEvals"); v != 0 {
		ip.QuadMaxEvals = v
	}
	if v := viper.GetInt("SingularOrder"); v != 0 {
		ip.SingularOrder = v
	}
	if v := viper.GetInt("NumThreads"); v != 0 {
		ip.NumThreads = v
	}
	if v := viper.GetFloat64("ProximityThreshold"); v != 0 {
		ip.ProximityThreshold = v
	}
}

// toMedium converts a parameter-file material entry; an omitted Mu
// means nonmagnetic.
func toMedium(name string, m InputParameters.Medium) substrate.Medium {
	if m.Mu == 0 {
		m.Mu = 1
	}
	return substrate.Medium{Name: name, Eps: complex(m.Eps, 0), Mu: complex(m.Mu, 0)}
}

// exteriorMedium resolves the named exterior from the Media table,
// defaulting to vacuum when the parameter file names none.
func exteriorMedium(ip *InputParameters.InputParameters) (substrate.Medium, error) {
	if ip.ExteriorMedium == "" {
		return substrate.Vacuum, nil
	}
	m, ok := ip.Media[ip.ExteriorMedium]
	if !ok {
		return substrate.Medium{}, fmt.Errorf("exterior medium %q not in Media", ip.ExteriorMedium)
	}
	return toMedium(ip.ExteriorMedium, m), nil
}

// surfaceBinding looks up the PEC flag and interior medium of a named
// demo plate in the Surfaces table; an unlisted plate is a PEC plate.
func surfaceBinding(ip *InputParameters.InputParameters, name string) (isPEC bool, interior substrate.Medium, err error) {
	s, ok := ip.Surfaces[name]
	if !ok {
		return true, substrate.Vacuum, nil
	}
	if s.IsPEC || s.Medium == "" {
		return s.IsPEC, substrate.Vacuum, nil
	}
	m, ok := ip.Media[s.Medium]
	if !ok {
		return false, substrate.Medium{}, fmt.Errorf("surface %q: medium %q not in Media", name, s.Medium)
	}
	return false, toMedium(s.Medium, m), nil
}

func init() {
	rootCmd.AddCommand(AssembleCmd)
	AssembleCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- Omega\n\t- QuadRelTol")
	AssembleCmd.Flags().IntP("refinement", "r", 4, "cells per plate side, two triangles per cell")
	AssembleCmd.Flags().Float64P("separation", "d", 0.5, "plate separation in units of the plate side")
	AssembleCmd.Flags().BoolP("profile", "p", false, "write a CPU profile of the assembly")
}

// PlateSurface builds a unit square plate at height z, meshed as an
// n x n grid of cells split into triangle pairs.
func PlateSurface(name string, z float64, n int, isPEC bool) (*rwg.Surface, error) {
	var (
		verts = make([]geom.Vec3, 0, (n+1)*(n+1))
		tris  = make([][3]int, 0, 2*n*n)
		h     = 1.0 / float64(n)
	)
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			verts = append(verts, geom.Vec3{float64(i) * h, float64(j) * h, z})
		}
	}
	at := func(i, j int) int { return j*(n+1) + i }
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			tris = append(tris,
				[3]int{at(i, j), at(i+1, j), at(i+1, j+1)},
				[3]int{at(i, j), at(i+1, j+1), at(i, j+1)})
		}
	}
	return rwg.NewSurface(name, verts, tris, isPEC, "")
}

func RunAssemble(ma *ModelAssemble, ip *InputParameters.InputParameters) {
	if ma.Profile {
		defer profile.Start(profile.CPUProfile).Stop()
	}
	exterior, err := exteriorMedium(ip)
	if err != nil {
		panic(err)
	}
	lowerPEC, lowerIn, err := surfaceBinding(ip, "lower")
	if err != nil {
		panic(err)
	}
	upperPEC, upperIn, err := surfaceBinding(ip, "upper")
	if err != nil {
		panic(err)
	}
	lower, err := PlateSurface("lower", 0, ma.Refinement, lowerPEC)
	if err != nil {
		panic(err)
	}
	upper, err := PlateSurface("upper", ma.Separation, ma.Refinement, upperPEC)
	if err != nil {
		panic(err)
	}

	opts := bem.DefaultOptions()
	opts.RelThreshold = ip.ProximityThreshold
	opts.Quad = cubature.AdaptiveOptions{
		AbsTol:   ip.QuadAbsTol,
		RelTol:   ip.QuadRelTol,
		MaxEvals: ip.QuadMaxEvals,
	}
	opts.TaylorOrder = ip.SingularOrder
	if ip.NumThreads > 0 {
		opts.NumThreads = ip.NumThreads
	}
	e := bem.NewEngine(opts, substrate.FreeSpace{})

	slots := func(isPEC bool) int {
		if isPEC {
			return 1
		}
		return 2
	}
	var (
		omega = complex(ip.Omega, 0)
		nl    = slots(lowerPEC) * len(lower.Edges)
		nu    = slots(upperPEC) * len(upper.Edges)
		B     = utils.NewCMatrix(nl+nu, nl+nu)
		ng    = ip.NumGradientComponents
		gradB = make([]*utils.CMatrix, ng)
		start = time.Now()
	)
	for mu := range gradB {
		g := utils.NewCMatrix(nl+nu, nl+nu)
		gradB[mu] = &g
	}
	fmt.Printf("%d + %d basis functions\n", nl, nu)
	blocks := []bem.BlockRequest{
		{Sa: lower, Sb: lower, Interior: lowerIn, Symmetric: ip.Symmetric},
		{Sa: lower, Sb: upper, ColOffset: nl,
			NumGradientComponents: ng, GradB: gradB},
		{Sa: upper, Sb: lower, RowOffset: nl},
		{Sa: upper, Sb: upper, Interior: upperIn, Symmetric: ip.Symmetric,
			RowOffset: nl, ColOffset: nl},
	}
	for _, blk := range blocks {
		blk.Omega = omega
		blk.Exterior = exterior
		blk.B = &B
		stats, err := e.AssembleBlock(blk)
		if err != nil {
			panic(err)
		}
		fmt.Printf("block %s/%s: %d edge pairs, converged=%v\n",
			blk.Sa.Name, blk.Sb.Name, stats.NumEdgePairs, stats.Converged)
	}
	fmt.Printf("assembled in %v, cache holds %d records\n", time.Since(start), e.Table.Size())
	fmt.Printf("||B||_F = %v, max|B| = %v\n", B.FrobNorm(), B.MaxAbs())
	for mu := 0; mu < ng; mu++ {
		fmt.Printf("||dB/dr%d||_F = %v\n", mu, gradB[mu].FrobNorm())
	}
}
